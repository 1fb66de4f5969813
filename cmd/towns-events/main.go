package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/towns-protocol/towns-sub022/config"
	"github.com/towns-protocol/towns-sub022/keys"
	"github.com/towns-protocol/towns-sub022/model"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cli carries the per-invocation environment shared by subcommands.
type cli struct {
	cfg    config.Config
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}
	switch args[0] {
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(errOut, "%v\n", err)
		return 2
	}
	c := &cli{
		cfg:    cfg,
		logger: config.NewLogger(errOut, cfg.LogLevel, cfg.LogFormat),
		out:    out,
		errOut: errOut,
	}

	switch args[0] {
	case "key":
		return c.cmdKey(args[1:])
	case "stream-id":
		return c.cmdStreamID(args[1:])
	case "make":
		return c.cmdMake(args[1:])
	case "check":
		return c.cmdCheck(args[1:])
	case "leaves":
		return c.cmdLeaves(args[1:])
	case "rollup":
		return c.cmdRollup(args[1:])
	case "put":
		return c.cmdPut(args[1:])
	case "get":
		return c.cmdGet(args[1:])
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "towns-events: signed stream event tooling")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  towns-events key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  towns-events key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  towns-events key list")
	fmt.Fprintln(w, "  towns-events key address --name <name> [--role <role>]")
	fmt.Fprintln(w, "  towns-events stream-id --kind user|space|channel [--id <identity>]")
	fmt.Fprintln(w, "  towns-events make --kind <payload-kind> [payload flags] [--prev <hash> ...] (--seed-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>)")
	fmt.Fprintln(w, "  towns-events check [--independent] <events.json>")
	fmt.Fprintln(w, "  towns-events leaves [--stream <id>] <events.json>")
	fmt.Fprintln(w, "  towns-events rollup --stream <id> [--format json|yaml] [--mode permissive|strict] [--verify=false] <events.json>")
	fmt.Fprintln(w, "  towns-events put [--cas-dir <dir> ...] [--cas-remote <addr> ...] <event.json>")
	fmt.Fprintln(w, "  towns-events get [--cas-dir <dir> ...] [--cas-remote <addr> ...] <cid>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - keys are stored under $TOWNS_KEY_DIR (default ~/.towns/keys) as hex secp256k1 scalars")
	fmt.Fprintln(w, "  - make writes canonical event JSON to stdout (no trailing newline)")
	fmt.Fprintln(w, "  - event list files are JSON arrays of events as written by make")
	fmt.Fprintln(w, "  - put replicates to every --cas-dir and --cas-remote; get reads directories first, then remotes")
	fmt.Fprintln(w, "  - without store flags, $TOWNS_CAS_DIRS and $TOWNS_CAS_REMOTES are used")
	fmt.Fprintln(w, "  - --format defaults to $TOWNS_OUTPUT, --mode to $TOWNS_COMPLIANCE")
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func (c *cli) keyStore() (*keys.KeyStore, error) {
	return keys.CreateKeyStore(c.cfg.KeyDir)
}

// writeOutput renders v to w as indented JSON or YAML.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// fail reports err on stderr in the structured form used by every command.
func (c *cli) fail(format string, err error) int {
	if werr := writeOutput(c.errOut, format, model.FromError(err)); werr != nil {
		fmt.Fprintf(c.errOut, "%v\n", err)
	}
	return 1
}
