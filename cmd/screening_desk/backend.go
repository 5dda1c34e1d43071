package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/screening-desk/internal/config"
	"github.com/jonathan/screening-desk/internal/db"
	"github.com/jonathan/screening-desk/internal/frappe"
	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/screening"
)

// backend bundles the record backends a command talks to. Applicant reads and
// writes go to records; interviews and imports always go through the API.
type backend struct {
	cfg     *config.Config
	loc     *time.Location
	source  *frappe.Source
	records screening.RecordSource
	closeFn func()
}

// openBackend loads the configuration and connects to the Frappe site. With
// useDB set and DATABASE_URL configured, applicant records are read from the
// site's database instead.
func openBackend(ctx context.Context, useDB bool) (*backend, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	client, err := frappe.NewClient(cfg.FrappeURL, &frappe.Options{
		Timeout:   frappe.DefaultTimeout,
		UserAgent: frappe.DefaultUserAgent,
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		Verbose:   cfg.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create frappe client: %w", err)
	}

	source := frappe.NewSource(client, frappe.Methods{
		EnsureInterviewRound: cfg.InterviewRoundMethod,
		RunImport:            cfg.ImportMethod,
		JoinWorkspace:        cfg.JoinWorkspaceMethod,
	}, loc)

	b := &backend{
		cfg:     cfg,
		loc:     loc,
		source:  source,
		records: source,
		closeFn: func() {},
	}

	if useDB && cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL, loc)
		if err != nil {
			return nil, err
		}
		log.Println("Reading applicants from the database")
		b.records = database
		b.closeFn = database.Close
	}

	return b, nil
}

// Close releases the database connection, if any.
func (b *backend) Close() {
	b.closeFn()
}

func (b *backend) resolver() rendering.ResumeResolver {
	return rendering.ResumeResolver{
		PublicPrefix:        b.cfg.FilesPrefix,
		PassthroughPrefixes: []string{b.cfg.FilesPrefix, b.cfg.PrivateFilesPrefix},
	}
}

// newPage creates an unmounted screening page for variant.
func (b *backend) newPage(variant rendering.Variant) *screening.Page {
	return screening.NewPage(b.records, screening.Options{
		Variant:     variant,
		Resolver:    b.resolver(),
		DeskURL:     b.source.DeskURL(),
		ReloadDelay: b.cfg.ReloadDelay(),
		ListLimit:   b.cfg.ListLimit,
	})
}

// variantFor resolves a --variant flag, falling back to the configured page.
func (b *backend) variantFor(key string) (rendering.Variant, error) {
	if key == "" {
		key = b.cfg.Variant
	}
	variant, ok := rendering.VariantByKey(key)
	if !ok {
		return rendering.Variant{}, fmt.Errorf("unknown screening page %q (want basic or filtered)", key)
	}
	return variant, nil
}
