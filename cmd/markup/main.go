package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	json "github.com/json-iterator/go"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"
	log "github.com/vine-io/vine/lib/logger"
	"go.uber.org/atomic"

	"github.com/vine-io/markup"
	"github.com/vine-io/markup/api"
	"github.com/vine-io/markup/extension"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "markup",
		Short:         "Check, format and inspect markup documents",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+defaultConfig+")")

	load := func(cmd *cobra.Command) (*Config, error) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers, _ = cmd.Flags().GetInt("workers")
			if err = cfg.Validate(); err != nil {
				return nil, err
			}
		}
		return cfg, nil
	}

	root.AddCommand(newCheckCmd(load), newFmtCmd(load), newExtCmd())
	return root
}

type loader func(cmd *cobra.Command) (*Config, error)

// fileResult is what check reports for one file.
type fileResult struct {
	File   string       `json:"file"`
	Type   string       `json:"type,omitempty"`
	Errors []*api.Error `json:"errors,omitempty"`
}

func newCheckCmd(load loader) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Deserialize files and report every recorded error",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			s, err := cfg.serializer()
			if err != nil {
				return err
			}

			results, failed, err := check(s, args, cfg.Workers)
			if err != nil {
				return err
			}
			if err = report(cmd.OutOrStdout(), results, asJSON); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files have errors", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().Int("workers", 4, "files checked at once")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

// check deserializes files on a pool of workers. Results keep the order
// of files.
func check(s *markup.Serializer, files []string, workers int) ([]*fileResult, int32, error) {
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, 0, err
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		failed  = atomic.NewInt32(0)
		total   = atomic.NewInt32(0)
		results = make([]*fileResult, len(files))
	)
	for i := range files {
		i := i
		wg.Add(1)
		err = pool.Submit(func() {
			defer wg.Done()
			res := checkFile(s, files[i])
			if len(res.Errors) > 0 {
				failed.Inc()
				total.Add(int32(len(res.Errors)))
				log.Errorf("%s: %d errors", res.File, len(res.Errors))
			} else {
				log.Infof("%s: ok", res.File)
			}
			results[i] = res
		})
		if err != nil {
			wg.Done()
			return nil, 0, err
		}
	}
	wg.Wait()

	log.Debugf("checked %d files, %d errors", len(files), total.Load())
	return results, failed.Load(), nil
}

func checkFile(s *markup.Serializer, name string) *fileResult {
	res := &fileResult{File: name}
	f, err := os.Open(name)
	if err != nil {
		res.Errors = []*api.Error{api.Value("%v", err).WithCause(err)}
		return res
	}
	defer f.Close()

	v, err := s.Deserialize(f)
	if v != nil {
		res.Type = fmt.Sprintf("%T", v)
	}
	res.Errors = errorsOf(err)
	return res
}

func errorsOf(err error) []*api.Error {
	if err == nil {
		return nil
	}
	var list *api.ErrorList
	if errors.As(err, &list) {
		return list.List()
	}
	return []*api.Error{api.FromErr(err)}
}

func report(w io.Writer, results []*fileResult, asJSON bool) error {
	if asJSON {
		b, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	for _, res := range results {
		if len(res.Errors) == 0 {
			fmt.Fprintf(w, "%s: ok\n", res.File)
			continue
		}
		errs := append([]*api.Error(nil), res.Errors...)
		sort.SliceStable(errs, func(i, j int) bool {
			if errs[i].Line != errs[j].Line {
				return errs[i].Line < errs[j].Line
			}
			return errs[i].Column < errs[j].Column
		})
		for _, e := range errs {
			fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", res.File, e.Line, e.Column, e.Kind, e.Detail)
		}
	}
	return nil
}

func newFmtCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "fmt FILE",
		Short: "Print a document in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			s, err := cfg.serializer()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			v, err := s.Deserialize(f)
			if err != nil {
				return err
			}
			if err = s.Serialize(cmd.OutOrStdout(), v); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout())
			return err
		},
	}
}

func newExtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ext TEXT",
		Short: "Parse a compact extension and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := extension.Parse(args[0])
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(inv, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}
