package main

import (
	"context"
	"log/slog"

	"automanager/config"
	"automanager/internal/delivery"
	"automanager/internal/delivery/cli"
	domainerrors "automanager/internal/domain/errors"
	"automanager/internal/errors"
	"automanager/internal/infra/auth"
	logs "automanager/internal/infra/log"
	"automanager/internal/infra/persistence/sqlite"
	"automanager/internal/usecase"
	"automanager/internal/usecase/impl"

	"go.uber.org/fx"
)

type startConsoleParams struct {
	fx.In

	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		fx.Invoke(
			seedAdmin,
			startConsole,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		sqlite.New,
		sqlite.NewTransactionManager,
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewCredentialCodec,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewOrderService,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				cli.NewShell,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// seedAdmin creates the bootstrap administrator account on first start so a
// fresh store is never locked out of user management.
func seedAdmin(ctx context.Context, cfg *config.Config, authUsecase usecase.AuthUsecase, logger *slog.Logger) error {
	if cfg.Seed == nil || cfg.Seed.Username == "" {
		return nil
	}

	_, err := authUsecase.Register(ctx, &usecase.RegisterInput{
		Username:    cfg.Seed.Username,
		DisplayName: cfg.Seed.DisplayName,
		Password:    cfg.Seed.Password,
		Role:        "Administrator",
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateUsername) {
			logger.Debug("Seed administrator already exists", slog.String("username", cfg.Seed.Username))
			return nil
		}

		return errors.Wrap(err, "failed to seed administrator account")
	}

	logger.Info("Seeded administrator account", slog.String("username", cfg.Seed.Username))

	return nil
}

func startConsole(ctx context.Context, params startConsoleParams) {
	for _, d := range params.Deliveries {
		go func() {
			if err := d.Serve(ctx); err != nil {
				params.Logger.Error("Console session ended", slog.Any("error", err))
			}
			if err := params.Shutdowner.Shutdown(); err != nil {
				params.Logger.Error("Failed to shut down", slog.Any("error", err))
			}
		}()
	}
}
