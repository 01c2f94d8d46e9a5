package main

import (
	"fmt"
	"os"

	"hotelbook/pkg/auth"
	"hotelbook/pkg/config"
	"hotelbook/pkg/model"

	"github.com/urfave/cli/v2"
)

const JobName = "token"

func main() {
	cfg := config.FromEnv(JobName)

	app := &cli.App{
		Name:  "token",
		Usage: "issue a bearer token for the bookings API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "user id placed in the subject claim", Required: true},
			&cli.StringFlag{Name: "role", Usage: "user, hotel_manager or admin", Value: model.RoleUser.String()},
			&cli.StringFlag{Name: "secret", Usage: "HS256 signing secret", EnvVars: []string{config.EnvJWTSecret}, Value: cfg.JWTSecret},
			&cli.StringFlag{Name: "issuer", Usage: "issuer claim", Value: cfg.JWTIssuer},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime", Value: cfg.JWTTTL},
		},
		Action: func(c *cli.Context) error {
			role, err := model.ParseRole(c.String("role"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			if c.String("secret") == "" {
				return cli.Exit("a signing secret is required", 2)
			}

			provider := auth.NewJWTProvider(c.String("secret"), c.String("issuer"), c.Duration("ttl"))
			token, err := provider.Issue(model.Identity{UserID: c.String("user"), Role: role})
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		cfg.Log.Error("Token issuance failed", "error", err)
		os.Exit(1)
	}
}
