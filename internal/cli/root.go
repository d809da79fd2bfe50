package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"shopfloor/internal/app"
	"shopfloor/internal/config"
	"shopfloor/internal/logger"
	"shopfloor/internal/service"
)

var (
	Version = "dev"
	Commit  = "none"
)

// Opener поднимает движок по конфигу; в тестах подменяется на хранилище в памяти.
type Opener func(cfg config.Config, log *slog.Logger) (*app.App, error)

type runtime struct {
	opener     Opener
	configPath string
	tenantID   int64
	userID     int64

	app *app.App
	log *slog.Logger
}

func (rt *runtime) scope() service.Scope {
	return service.Scope{TenantID: rt.tenantID, UserID: rt.userID}
}

// NewRootCmd собирает shopctl: утилиту оператора для пересчёта прогресса и выгрузки ленты.
func NewRootCmd(opener Opener) *cobra.Command {
	rt := &runtime{opener: opener}

	root := &cobra.Command{
		Use:           "shopctl",
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		Short:         "Shop-floor progress engine operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if rt.tenantID <= 0 {
				return fmt.Errorf("--tenant is required")
			}

			path := rt.configPath
			if path == "" {
				path = os.Getenv("CONFIG_PATH")
			}
			if path == "" {
				path = "./config/local.yaml"
			}

			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}

			// логи в stderr, чтобы не мешать json/yaml в stdout
			rt.log = logger.New(cfg.Env, cmd.ErrOrStderr(), "")

			rt.app, err = rt.opener(*cfg, rt.log)
			if err != nil {
				return err
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.app == nil {
				return nil
			}
			return rt.app.Close()
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "path to config file (default $CONFIG_PATH or ./config/local.yaml)")
	root.PersistentFlags().Int64Var(&rt.tenantID, "tenant", 0, "tenant id")
	root.PersistentFlags().Int64Var(&rt.userID, "user", 0, "user id recorded on writes")

	root.AddCommand(newRecomputeCmd(rt))
	root.AddCommand(newTimelineCmd(rt))
	root.AddCommand(newBreakdownsCmd(rt))

	return root
}

func Execute(opener Opener, out io.Writer) error {
	cmd := NewRootCmd(opener)
	cmd.SetOut(out)
	return cmd.Execute()
}
