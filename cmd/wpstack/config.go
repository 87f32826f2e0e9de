// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/danielcregg/aws2023-wp/internal/config"
	"github.com/danielcregg/aws2023-wp/internal/issue"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage wpstack configuration",
	Long: `Manage wpstack configuration.

Configuration files are looked up in order:
  1. Path given via --config
  2. ~/.config/wpstack/config.cue
  3. ./wpstack.cue
  4. /etc/wpstack/config.cue

The first file found wins. Without any file, the built-in Amazon
Linux 2023 defaults apply. WPSTACK_* environment variables override
both, e.g. WPSTACK_DATABASE_PASSWORD for database.password.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Print(config.GenerateCUE(cfg))
			return nil
		},
	})
}

func showConfig() error {
	cfg, err := config.Load()
	if err != nil {
		renderIssue(rootCmd.ErrOrStderr(), issue.ConfigLoadFailedId)
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()
	fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), configSource())
	fmt.Println()

	fmt.Printf("%s: %s\n", keyStyle.Render("web_root"), valueStyle.Render(cfg.WebRoot.String()))
	fmt.Printf("%s: %s\n", keyStyle.Render("state_dir"), valueStyle.Render(cfg.StateDir.String()))
	if cfg.StepFile != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("step_file"), valueStyle.Render(cfg.StepFile.String()))
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("step_file"), SubtitleStyle.Render("(wpsteps.cue in the working directory, when present)"))
	}

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("services"))
	fmt.Printf("  database:   %s\n", valueStyle.Render(cfg.Services.Database.String()))
	fmt.Printf("  web_server: %s\n", valueStyle.Render(cfg.Services.WebServer.String()))
	fmt.Printf("  php:        %s\n", valueStyle.Render(cfg.Services.PHP.String()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("packages"))
	if len(cfg.Packages.Names) == 0 {
		fmt.Printf("  %s\n", SubtitleStyle.Render("(none)"))
	}
	for _, name := range cfg.Packages.Names {
		fmt.Printf("  - %s\n", valueStyle.Render(name))
	}

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("database"))
	fmt.Printf("  name:       %s\n", valueStyle.Render(cfg.Database.Name.String()))
	fmt.Printf("  user:       %s\n", valueStyle.Render(cfg.Database.User.String()))
	fmt.Printf("  password:   %s\n", passwordDisplay(cfg.Database.Password))
	fmt.Printf("  host:       %s\n", valueStyle.Render(cfg.Database.Host))
	fmt.Printf("  port:       %s\n", valueStyle.Render(fmt.Sprintf("%d", cfg.Database.Port)))
	fmt.Printf("  socket:     %s\n", valueStyle.Render(cfg.Database.Socket))
	fmt.Printf("  admin_user: %s\n", valueStyle.Render(cfg.Database.AdminUser))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("install"))
	fmt.Printf("  packages:   %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Install.Packages)))
	fmt.Printf("  wordpress:  %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Install.WordPress)))
	fmt.Printf("  phpmyadmin: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Install.PHPMyAdmin)))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("sources"))
	fmt.Printf("  wordpress:  %s\n", valueStyle.Render(cfg.Sources.WordPress.String()))
	fmt.Printf("  phpmyadmin: %s\n", valueStyle.Render(cfg.Sources.PHPMyAdmin.String()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("php"))
	fmt.Printf("  ini_path:            %s\n", valueStyle.Render(cfg.PHP.IniPath.String()))
	fmt.Printf("  upload_max_filesize: %s\n", valueStyle.Render(cfg.PHP.UploadMaxFilesize))
	fmt.Printf("  post_max_size:       %s\n", valueStyle.Render(cfg.PHP.PostMaxSize))
	fmt.Printf("  memory_limit:        %s\n", valueStyle.Render(cfg.PHP.MemoryLimit))
	fmt.Printf("  max_execution_time:  %s\n", valueStyle.Render(cfg.PHP.MaxExecutionTime))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("owner"))
	fmt.Printf("  user:  %s\n", valueStyle.Render(cfg.Owner.User))
	fmt.Printf("  group: %s\n", valueStyle.Render(cfg.Owner.Group))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("ui"))
	fmt.Printf("  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Printf("  verbose:      %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))
	fmt.Printf("  no_spinner:   %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.NoSpinner)))

	return nil
}

// passwordDisplay never echoes the configured password.
func passwordDisplay(password string) string {
	if password == "" {
		return SubtitleStyle.Render("(prompted at run time, or WPSTACK_DATABASE_PASSWORD)")
	}
	return SubtitleStyle.Render("(configured)")
}

func initConfig() error {
	cfgPath, err := config.CreateDefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Printf("%s Configuration file at %s\n", successIcon, cfgPath)
	fmt.Printf("%s Edit it, then check the result with %s\n", infoIcon, CmdStyle.Render("wpstack validate"))
	return nil
}

func showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Printf("Config directory: %s\n", cfgDir)
	fmt.Println("Lookup order:")
	fmt.Printf("  1. path given via --config\n")
	fmt.Printf("  2. %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
	fmt.Printf("  3. %s\n", config.LocalConfigFileName)
	fmt.Printf("  4. %s\n", filepath.Join(config.SystemConfigDir, config.ConfigFileName+"."+config.ConfigFileExt))

	return nil
}
