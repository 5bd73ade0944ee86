package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default is server.listen)")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	a := mustApplication(ctx)
	defer a.Close()

	p, err := a.pipeline(ctx)
	if err != nil {
		a.logger.Fatal("building pipeline", zap.Error(err))
	}

	srv := server.New(p, a.review(), a.logger.Named("http"))
	if err := srv.ListenAndServe(ctx, a.config.Server.Listen); err != nil {
		a.logger.Error("serving http", zap.Error(err))
	}
}
