package main

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"memento/internal/extractor"
	"memento/internal/fsutil"
	"memento/internal/generator"
	"memento/internal/note"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		maxLength  int
		outPath    string
		reportPath string
	)
	cmd := &cobra.Command{
		Use:   "render [NOTE_FILE|-]",
		Short: "Render a session note into a comment body",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max") {
				cfg.Render.MaxBodyLength = maxLength
			}
			if reportPath == "" {
				reportPath = cfg.Report.Path
			}

			text, source, err := a.readNote(args)
			if err != nil {
				return err
			}

			renderer := generator.NewRenderer(generator.Options{
				MaxBodyLength:   cfg.Render.MaxBodyLength,
				ReflowProviders: cfg.Render.ReflowProviders,
			})
			var report *generator.Report
			if reportPath != "" {
				report = generator.NewReport(source)
			}
			out := renderer.RenderWithReport(text, report)

			a.log().Debug("rendered note",
				"source", source,
				"provider", out.Metadata.Provider,
				"sections", len(out.Sections),
				"outcome", string(out.Outcome))
			if out.Outcome != generator.OutcomeFull {
				a.log().Warn("comment body degraded to fit size limit",
					"outcome", string(out.Outcome),
					"max_body_length", cfg.Render.MaxBodyLength)
			}

			if report != nil {
				if err := report.Save(a.fs, reportPath); err != nil {
					return fmt.Errorf("failed to write render report: %w", err)
				}
				a.log().Debug("wrote render report", "path", reportPath, "run_id", report.RunID)
			}

			if outPath != "" {
				if err := fsutil.WriteFileAtomic(a.fs, outPath, []byte(out.Body)); err != nil {
					return fmt.Errorf("failed to write comment body: %w", err)
				}
				a.log().Info("wrote comment body", "path", outPath)
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out.Body)
			return err
		},
	}
	cmd.Flags().IntVarP(&maxLength, "max", "m", generator.DefaultMaxBodyLength, "Maximum comment body length in characters")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the body to this file instead of stdout")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a JSON render report to this file")
	return cmd
}

func newNoSessionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "no-session",
		Short: "Print the comment body used when a commit has no session note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), generator.BuildNoSessionBody())
			return err
		},
	}
}

// inspection is the YAML document printed by the inspect command.
type inspection struct {
	Metadata note.Metadata       `yaml:"metadata"`
	Trace    extractor.Trace     `yaml:"trace"`
	Sections []inspectionSection `yaml:"sections"`
	Body     string              `yaml:"remaining_body"`
}

type inspectionSection struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Lines int    `yaml:"lines"`
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [NOTE_FILE|-]",
		Short: "Show the metadata and sections extracted from a note",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			text, _, err := a.readNote(args)
			if err != nil {
				return err
			}

			meta := note.Parse(text)
			result, trace := extractor.Extract(text, meta, extractor.Options{ReflowProviders: cfg.Render.ReflowProviders})
			doc := inspection{
				Metadata: meta,
				Trace:    trace,
				Sections: make([]inspectionSection, 0, len(result.Sections)),
				Body:     result.Body,
			}
			for _, s := range result.Sections {
				doc.Sections = append(doc.Sections, inspectionSection{
					ID:    s.ID(),
					Title: s.Title,
					Lines: countLines(s.Content),
				})
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("failed to encode inspection: %w", err)
			}
			return enc.Close()
		},
	}
}

func readInput(fs afero.Fs, path string, stdin io.Reader) ([]byte, error) {
	return fsutil.ReadInput(fs, path, func() ([]byte, error) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read note from stdin: %w", err)
		}
		return data, nil
	})
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
		}
	}
	return n
}
