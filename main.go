package main

import (
	"fmt"
	"os"

	"github.com/pliu/instamunicipal/internal/config"
	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "instamunicipal",
		Usage:   "Municipal social network server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   "instamunicipal.toml",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			configCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a sample configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "instamunicipal.toml",
					},
				},
				Action: func(c *cli.Context) error {
					out := c.String("output")
					if err := config.InitConfig(out); err != nil {
						return fmt.Errorf("failed to initialize config: %w", err)
					}
					fmt.Printf("Created configuration file at %s\n", out)
					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "Validate the configuration",
				Action: func(c *cli.Context) error {
					cfg, err := config.LoadConfig(c.String("config"))
					if err != nil {
						return fmt.Errorf("failed to load config: %w", err)
					}
					if err := config.Validate(cfg); err != nil {
						return fmt.Errorf("invalid configuration: %w", err)
					}
					fmt.Println("Configuration is valid")
					return nil
				},
			},
		},
	}
}
