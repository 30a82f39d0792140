// Command budgetctl records a transaction from the terminal through the same
// dialog flow the web form uses.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/config"
	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/dafibh/budget-tracker/budget-backend/internal/events"
	"github.com/dafibh/budget-tracker/budget-backend/internal/repository/postgres"
	"github.com/dafibh/budget-tracker/budget-backend/internal/service"
	"github.com/dafibh/budget-tracker/budget-backend/internal/txdialog"
	"github.com/dafibh/budget-tracker/budget-backend/internal/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	var (
		userID      = pflag.StringP("user", "u", "", "user ID (token subject) to record the transaction for")
		txType      = pflag.StringP("type", "t", string(domain.TransactionTypeExpense), "income or expense")
		category    = pflag.StringP("category", "c", "", "category name")
		amount      = pflag.Float64P("amount", "a", 0, "amount")
		description = pflag.StringP("description", "d", "", "optional description")
		date        = pflag.String("date", "", "date as YYYY-MM-DD (default today)")
		timeout     = pflag.Duration("timeout", 10*time.Second, "request timeout")
	)
	pflag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(*userID, domain.TransactionType(*txType), *category, *amount, *description, *date, *timeout); err != nil {
		if ve, ok := domain.AsValidationError(err); ok {
			for _, f := range ve.Fields {
				fmt.Fprintf(os.Stderr, "%s: %s\n", f.Field, f.Message)
			}
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("budgetctl failed")
	}
}

func run(userID string, txType domain.TransactionType, category string, amount float64, description, date string, timeout time.Duration) error {
	if userID == "" {
		return errors.New("--user is required")
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	transactionRepo := postgres.NewTransactionRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	transactionService := service.NewTransactionService(transactionRepo, categoryRepo, events.NoOpInvalidator{})
	categoryService := service.NewCategoryService(categoryRepo)

	dialog := txdialog.New(
		txType,
		txdialog.ForUser(transactionService, userID),
		txdialog.InvalidatorFunc(func(key string) {
			log.Debug().Str("key", key).Msg("Query invalidated")
		}),
		txdialog.LogNotifier{},
	)
	dialog.Open()

	if category != "" {
		err := dialog.SelectCategory(txdialog.SelectorFunc(func(t domain.TransactionType) (string, error) {
			return categoryService.SelectValue(ctx, userID, t, category)
		}))
		if err != nil {
			if errors.Is(err, domain.ErrCategoryNotFound) {
				return domain.NewFieldValidationError("category", fmt.Sprintf("no %s category named %q", txType, category))
			}
			return err
		}
	}
	dialog.SetAmount(amount)
	dialog.SetDescription(description)
	if date != "" {
		d, err := util.ParseDate(date)
		if err != nil {
			return domain.NewFieldValidationError("date", err.Error())
		}
		dialog.SetDate(d)
	}

	created, err := dialog.Submit(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s\t%s\t%s\t%s\t%s\n",
		created.ID,
		created.Date.Format(util.DateLayout),
		created.Type,
		created.Category,
		created.Amount.StringFixed(2),
	)
	return nil
}
