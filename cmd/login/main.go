// Command login verifies a username/password pair against the account
// store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"account-settlement-core/internal/common"
	"account-settlement-core/internal/config"
	"account-settlement-core/internal/credential"

	"go.uber.org/zap"
)

func main() {
	usernameFlag := flag.String("username", "", "Username (required)")
	passwordFlag := flag.String("password", "", "Password (required)")
	flag.Parse()

	if *usernameFlag == "" || *passwordFlag == "" {
		fmt.Println("Usage: login --username <name> --password <pass>")
		return
	}

	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	account, err := services.CredentialService.Login(ctx, credential.LoginParams{
		Username: *usernameFlag,
		Password: *passwordFlag,
	})
	if err != nil {
		switch {
		case errors.Is(err, credential.ErrInvalidCredentials):
			fmt.Println("Invalid username or password")
		case errors.Is(err, credential.ErrAccountInactive):
			fmt.Println("This account is inactive")
		default:
			zap.L().Fatal("Login failed", zap.Error(err))
		}
		return
	}

	fmt.Println()
	common.PrintHeader("LOGIN SUCCESSFUL", common.DefaultWidth)
	fmt.Printf("ID:       %s\n", account.Id)
	fmt.Printf("Username: %s\n", account.Username)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
}
