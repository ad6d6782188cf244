package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/hazstudy/internal/catalog"
	"github.com/zulandar/hazstudy/internal/config"
	"github.com/zulandar/hazstudy/internal/db"
	"github.com/zulandar/hazstudy/internal/study"
	"github.com/zulandar/hazstudy/internal/workflow"
	"gorm.io/gorm"
)

const defaultConfigPath = "hazstudy.yaml"

// loadConfig reads the config file. A missing default file falls back to a
// local sqlite database so the tool works without any setup.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err == nil {
		return cfg, nil
	}
	if configPath == defaultConfigPath && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("load config: %w", err)
}

// connectFromConfig loads the config and opens a migrated database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

// app bundles what most commands need.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	studies study.Store
	ctrl    *workflow.Controller
}

func openApp(configPath string) (*app, error) {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return nil, err
	}
	studies := study.NewDBStore(gormDB, cfg.StudyIDPrefix, cfg.StudyIDYear)
	ctrl, err := workflow.NewController(workflow.ControllerOpts{
		Catalog: catalog.NewDBStore(gormDB),
		Studies: studies,
		Client:  cfg.Client,
	})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, db: gormDB, studies: studies, ctrl: ctrl}, nil
}

// loadSeed returns the configured catalog file, or the built-in demo
// catalog when none is configured.
func loadSeed(cfg *config.Config) (*catalog.Seed, string, error) {
	if cfg.CatalogFile == "" {
		return catalog.DemoSeed(), "built-in demo catalog", nil
	}
	seed, err := catalog.LoadSeed(cfg.CatalogFile)
	if err != nil {
		return nil, "", err
	}
	return seed, cfg.CatalogFile, nil
}

func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", defaultConfigPath, "path to hazstudy config file")
}

// printOutcome reports the state change and any warnings of an operation.
func printOutcome(out io.Writer, s *study.Session, o study.Outcome) {
	if o.Advanced {
		fmt.Fprintf(out, "%s: %s -> %s\n", s.ID, o.From, o.To)
	} else {
		fmt.Fprintf(out, "%s: %s\n", s.ID, s.State)
	}
	for _, w := range o.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
