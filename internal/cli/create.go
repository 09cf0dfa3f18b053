package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eleven-am/recipe-api/internal/auth"
	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/spf13/cobra"
)

var (
	superuserEmail    string
	superuserPassword string
	superuserName     string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create a staff account with every permission",
	Long: `Creates an active user with the staff and superuser flags set, able to
log in to the admin site. The email is normalised before it is stored.`,
	RunE: runCreateSuperuser,
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superuserEmail, "email", "", "Email address (required)")
	createSuperuserCmd.Flags().StringVar(&superuserPassword, "password", "", "Password (required)")
	createSuperuserCmd.Flags().StringVar(&superuserName, "name", "", "Display name")
}

func runCreateSuperuser(cmd *cobra.Command, args []string) error {
	email := strings.TrimSpace(superuserEmail)
	if email == "" {
		return errors.New("--email is required")
	}
	if superuserPassword == "" {
		return errors.New("--password is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := connect(ctx, false, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer db.Close()

	_, users, _, err := services(db, appConfig)
	if err != nil {
		return err
	}

	taken, err := users.EmailTaken(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return fmt.Errorf("a user with email %s already exists", auth.NormalizeEmail(email))
	}

	user, err := users.CreateSuperuser(ctx, email, superuserPassword, superuserName)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			return fmt.Errorf("a user with email %s already exists", auth.NormalizeEmail(email))
		}
		return fmt.Errorf("failed to create superuser: %w", err)
	}

	logger.CLI().WithField("user_id", user.ID).Info("created superuser")
	fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created successfully.\n", user.Email)
	return nil
}
