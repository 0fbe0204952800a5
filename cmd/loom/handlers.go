// handlers.go contains the implementations behind the cobra commands.
package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/canvasloom/loom/internal/config"
	"github.com/canvasloom/loom/internal/registry"
	"github.com/canvasloom/loom/internal/store"
	"github.com/canvasloom/loom/pkg/conv"
)

func runModels(out io.Writer, provider, capability string, includeDeprecated bool) error {
	catalog := registry.NewCatalog()

	filter := &registry.Filter{IncludeDeprecated: includeDeprecated}
	if provider != "" {
		filter.Providers = []string{provider}
	}
	if capability != "" {
		filter.RequiredCapabilities = conv.ParseCapability(capability)
	}

	models := catalog.List(filter)
	if len(models) == 0 {
		fmt.Fprintln(out, "no models match")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tMODEL\tTIER\tCONTEXT\tCAPABILITIES")
	for _, m := range models {
		name := m.ID
		if m.Deprecated {
			name += " (deprecated)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			m.Provider, name, m.Tier, m.ContextWindow, m.Capabilities)
	}
	return w.Flush()
}

func openStore(configPath string) (*store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return store.New(store.Config{Path: cfg.Store.Path})
}

func runConversationsList(ctx context.Context, out io.Writer, configPath string) error {
	s, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.List(ctx, 100, 0)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "no conversations stored")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tUPDATED")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			rec.ID, rec.Title, rec.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runConversationsShow(ctx context.Context, out io.Writer, configPath, id string) error {
	s, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.Load(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "conversation %s", rec.ID)
	if rec.Title != "" {
		fmt.Fprintf(out, " (%s)", rec.Title)
	}
	fmt.Fprintf(out, ", %d interactions\n\n", rec.Body.Len())

	for i := 0; i < rec.Body.Len(); i++ {
		interaction := rec.Body.At(i)
		fmt.Fprintf(out, "[%d] %s %s", i, interaction.Agent, interaction.Kind)
		if interaction.TurnID != "" {
			fmt.Fprintf(out, " turn=%s", interaction.TurnID)
		}
		fmt.Fprintln(out)
		if content := interaction.Content(); content != "" {
			fmt.Fprintf(out, "    %s\n", content)
		}
	}

	if metrics := rec.Body.Metrics(); !metrics.IsZero() {
		fmt.Fprintf(out, "\ntokens: %d in, %d out (%d total)\n",
			metrics.InputTokens(), metrics.OutputTokens(), metrics.TotalTokens())
	}
	if pending := rec.Body.PendingToolCalls(); len(pending) > 0 {
		fmt.Fprintf(out, "pending tool calls: %d\n", len(pending))
	}
	return nil
}

func runConversationsDelete(ctx context.Context, out io.Writer, configPath, id string) error {
	s, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %s\n", id)
	return nil
}

func runConfigValidate(out io.Writer, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s is valid: %d provider(s), default %s\n",
		configPath, len(cfg.Providers), cfg.Engine.DefaultProvider)
	return nil
}
