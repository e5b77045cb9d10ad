package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"account-settlement-core/internal/models"
	"account-settlement-core/internal/store"
	"account-settlement-core/internal/wallet"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoCredentialsProvided = errors.New("credential: no credentials provided")
	ErrInvalidUsername       = errors.New("credential: invalid username")
	ErrInvalidPassword       = errors.New("credential: invalid password")
	ErrBadAccountLookup      = errors.New("credential: account lookup failed")
	ErrSignUpUsernameTaken   = errors.New("credential: username already taken")
	ErrAccountCreate         = errors.New("credential: account could not be created")
	ErrInvalidCredentials    = errors.New("credential: invalid credentials")
	ErrAccountInactive       = errors.New("credential: account is inactive")
)

// SignUpParams is the raw signup request.
type SignUpParams struct {
	Username string
	Password string
}

// LoginParams is the raw login request.
type LoginParams struct {
	Username string
	Password string
}

// Service implements signup sanitization and login verification against a
// LedgerStore. It resolves the signup uniqueness-probe/insert race by
// performing the insert itself and mapping a unique-index violation to the
// appropriate error kind, rather than handing the caller an augmented
// record to insert separately.
type Service struct {
	store     store.LedgerStore
	allocator *wallet.Allocator
	hasher    *Hasher
	cfg       models.CredentialConfig
}

// NewService constructs a credential Service.
func NewService(s store.LedgerStore, allocator *wallet.Allocator, cfg models.CredentialConfig) *Service {
	return &Service{
		store:     s,
		allocator: allocator,
		hasher:    NewHasher(cfg.SaltSize),
		cfg:       cfg,
	}
}

// SignUp validates credentials, allocates a deposit wallet, and creates the
// account.
func (s *Service) SignUp(ctx context.Context, params SignUpParams) (*models.Account, error) {
	if params.Username == "" || params.Password == "" {
		return nil, ErrNoCredentialsProvided
	}

	username := strings.TrimSpace(params.Username)
	if len(username) < s.cfg.MinUsernameLength || len(username) > s.cfg.MaxUsernameLength {
		return nil, ErrInvalidUsername
	}

	if len(params.Password) < s.cfg.MinPasswordLength || len(params.Password) > s.cfg.MaxPasswordLength {
		return nil, ErrInvalidPassword
	}

	existing, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrBadAccountLookup, err)
	}
	if existing != nil {
		return nil, ErrSignUpUsernameTaken
	}

	salt, err := s.hasher.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("credential: %w", err)
	}
	hashed := s.hasher.Hash(params.Password, salt)

	info, err := s.allocator.Allocate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccountCreate, err)
	}

	account, err := s.store.CreateAccount(ctx, store.CreateAccountParams{
		Id:                      uuid.NewString(),
		Username:                username,
		Password:                hashed,
		PasswordSalt:            salt,
		Active:                  true,
		CreatedDate:             s.store.Now(ctx),
		DepositWalletAddress:    info.Address,
		DepositWalletPassphrase: info.Passphrase,
		DepositWalletPrivateKey: info.PrivateKey,
		DepositWalletPublicKey:  info.PublicKey,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateAccount) {
			return nil, ErrSignUpUsernameTaken
		}
		if errors.Is(err, store.ErrDuplicateDepositAddress) {
			// The allocator already probed this address for collisions; losing
			// this race is rare enough to surface as a generic create failure
			// rather than inventing a new caller-facing error kind for it.
			return nil, fmt.Errorf("%w: deposit wallet address collided on insert: %v", ErrAccountCreate, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrAccountCreate, err)
	}

	zap.L().Info("Account created", zap.String("account_id", account.Id), zap.String("username", account.Username))
	return account, nil
}

// Login verifies a username/password pair. Unknown username and wrong
// password collapse into the same ErrInvalidCredentials to avoid an
// enumeration oracle.
func (s *Service) Login(ctx context.Context, params LoginParams) (*models.Account, error) {
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrBadAccountLookup, err)
	}

	if !account.Active {
		return nil, ErrAccountInactive
	}

	if !s.hasher.Verify(params.Password, account.PasswordSalt, account.Password) {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}
