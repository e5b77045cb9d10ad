// Command signup creates a new account: it sanitizes and validates the
// provided username/password, allocates a deposit wallet, and persists
// the account.
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
	usernameFlag := flag.String("username", "", "Desired username (required)")
	passwordFlag := flag.String("password", "", "Password (required)")
	flag.Parse()

	if *usernameFlag == "" || *passwordFlag == "" {
		fmt.Println("Usage: signup --username <name> --password <pass>")
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

	account, err := services.CredentialService.SignUp(ctx, credential.SignUpParams{
		Username: *usernameFlag,
		Password: *passwordFlag,
	})
	if err != nil {
		switch {
		case errors.Is(err, credential.ErrSignUpUsernameTaken):
			zap.L().Fatal("Username already taken", zap.String("username", *usernameFlag))
		case errors.Is(err, credential.ErrInvalidUsername):
			zap.L().Fatal("Invalid username", zap.String("username", *usernameFlag))
		case errors.Is(err, credential.ErrInvalidPassword):
			zap.L().Fatal("Invalid password")
		default:
			zap.L().Fatal("Failed to create account", zap.Error(err))
		}
	}

	fmt.Println()
	common.PrintHeader("ACCOUNT CREATED", common.DefaultWidth)
	fmt.Printf("ID:                    %s\n", account.Id)
	fmt.Printf("Username:              %s\n", account.Username)
	fmt.Printf("Deposit wallet:        %s\n", account.DepositWalletAddress)
	fmt.Printf("Deposit passphrase:    %s\n", account.DepositWalletPassphrase)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Account created successfully", zap.String("account_id", account.Id))
}
