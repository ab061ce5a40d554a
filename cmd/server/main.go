package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/expensehub/internal/flagx"
	"github.com/dmitrijs2005/expensehub/internal/server"
	"github.com/dmitrijs2005/expensehub/internal/server/auth"
	"github.com/dmitrijs2005/expensehub/internal/server/config"
)

func main() {

	cfg := config.LoadConfig()

	// -mint <owner> prints an API token for owner and exits.
	var mint string
	fs := flag.NewFlagSet("mint", flag.ContinueOnError)
	fs.StringVar(&mint, "mint", "", "print an API token for the given owner id and exit")
	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-mint"})); err != nil {
		log.Fatalf("%v", err)
	}

	if mint != "" {
		token, err := auth.GenerateToken(mint, []byte(cfg.SecretKey), cfg.TokenValidityDuration)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(token)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
