package main

import (
	"fmt"
	"maps"
	"slices"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/quantarax/sigtool/internal/digest"
	"github.com/quantarax/sigtool/internal/observability"
	"github.com/quantarax/sigtool/internal/service"
)

func (a *app) generateCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "generate-keypair",
		Short: "Generate a new Ed25519 keypair (key.pub / key.sec).",
		Long: `Generate a new Ed25519 keypair and write it as key.pub and key.sec.
Existing key files are left untouched unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.svc.GenerateKeypair(cmd.Context(), force)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, "Public Key:")
			fmt.Fprintf(a.stdout, "  %s\n", a.svc.Config().Encoding().Encode(res.PublicKey))
			fmt.Fprintln(a.stdout, "Fingerprint:")
			fmt.Fprintf(a.stdout, "  %s\n", res.Fingerprint)
			fmt.Fprintln(a.stdout, "Keys written to:")
			fmt.Fprintf(a.stdout, "  %s\n  %s\n", res.Paths.Public, res.Paths.Secret)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing key files")
	return cmd
}

func (a *app) hashCmd() *cobra.Command {
	var (
		short     bool
		asJSON    bool
		algorithm string
		chunkSize int
	)

	cmd := &cobra.Command{
		Use:   "hash [flags] <path>",
		Short: "Print the digest of a file (\"-\" reads standard input).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := service.HashOptions{ChunkSize: chunkSize}
			if algorithm != "" {
				alg, err := digest.ParseAlgorithm(algorithm)
				if err != nil {
					return err
				}
				opts.Algorithm = alg
			}

			res, err := a.svc.Hash(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			if asJSON {
				return a.printJSON(res)
			}
			fmt.Fprintln(a.stdout, res.Line(short))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&short, "short", "s", false, "Print the digest in base58 instead of hex")
	flags.BoolVar(&asJSON, "json", false, "Print a JSON object with both encodings")
	flags.StringVarP(&algorithm, "algorithm", "a", "", "Hash algorithm: sha512, sha256, blake3, blake2b-512, sha3-256")
	flags.IntVar(&chunkSize, "chunk-size", 0, "Read size in bytes (default from configuration)")
	return cmd
}

func (a *app) signCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sign [flags] <path>",
		Short: "Write a detached signature for a file (default <path>.sig).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.svc.Sign(cmd.Context(), args[0], output)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Signature written to %s\n", res.SignaturePath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Signature file to write")
	return cmd
}

func (a *app) verifyCmd() *cobra.Command {
	var (
		signature string
		publicKey string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "verify [flags] <path>",
		Short: "Check a detached signature against a public key.",
		Long: `Check the detached signature of a file against a public key.
Prints OK or FAILED. Exit status is 0 for a valid signature, 3 for a
signature that does not match and 1 when the signature or key cannot be
read or decoded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.svc.Verify(cmd.Context(), args[0], signature, publicKey)
			if err != nil {
				return err
			}

			if asJSON {
				if err := a.printJSON(res); err != nil {
					return err
				}
			} else if res.Valid {
				fmt.Fprintf(a.stdout, "%s: OK\n", res.Path)
			} else {
				fmt.Fprintf(a.stdout, "%s: FAILED\n", res.Path)
			}

			if !res.Valid {
				return errSignatureMismatch
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&signature, "signature", "", "Signature file (default <path>.sig)")
	flags.StringVar(&publicKey, "public-key", "", "Public key file (default from keys directory)")
	flags.BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func (a *app) showKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-key",
		Short: "Display the public key and its fingerprint.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.svc.ShowPublicKey(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, "Public Key:")
			fmt.Fprintf(a.stdout, "  %s\n", info.PublicKey)
			fmt.Fprintln(a.stdout, "Fingerprint:")
			fmt.Fprintf(a.stdout, "  %s\n", info.Fingerprint)
			fmt.Fprintf(a.stdout, "Key Type: %s\n", info.KeyType)
			return nil
		},
	}
}

func (a *app) doctorCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the digest engine, keys directory and keypair.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp := a.svc.Doctor(cmd.Context(), version)

			if asJSON {
				if err := a.printJSON(resp); err != nil {
					return err
				}
			} else {
				for _, name := range slices.Sorted(maps.Keys(resp.Checks)) {
					c := resp.Checks[name]
					fmt.Fprintf(a.stdout, "%-16s %-9s %s\n", name, c.Status, c.Message)
				}
			}

			if resp.Status == observability.HealthStatusUnhealthy {
				return fmt.Errorf("installation is %s", resp.Status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(a.stdout, string(data))
	return err
}
