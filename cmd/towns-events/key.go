package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"io"

	"github.com/towns-protocol/towns-sub022/keys"
)

func (c *cli) cmdKey(args []string) int {
	if len(args) == 0 {
		printKeyUsage(c.errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return c.cmdKeyInit(args[1:])
	case "derive":
		return c.cmdKeyDerive(args[1:])
	case "list":
		return c.cmdKeyList(args[1:])
	case "address":
		return c.cmdKeyAddress(args[1:])
	case "help", "-h", "--help":
		printKeyUsage(c.out)
		return 0
	default:
		fmt.Fprintf(c.errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(c.errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "towns-events key: local secp256k1 key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  towns-events key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  towns-events key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  towns-events key list")
	fmt.Fprintln(w, "  towns-events key address --name <name> [--role <role>]")
}

func (c *cli) cmdKeyInit(args []string) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var name string
	var seedHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under the key store)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional secp256k1 private scalar as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(c.errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(c.errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(c.errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		w, gerr := keys.GenerateWallet(rand.Reader)
		if gerr != nil {
			fmt.Fprintf(c.errOut, "generate key: %v\n", gerr)
			return 1
		}
		seed = w.Seed()
	}

	address, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(c.errOut, "write key: %v\n", err)
		return 1
	}
	c.logger.Debug("root key written", "name", name, "path", rootPath)
	fmt.Fprintf(c.out, "Created root key: %s\n", address)
	fmt.Fprintf(c.out, "Stored at: %s\n", rootPath)
	return 0
}

func (c *cli) cmdKeyDerive(args []string) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var from string
	var role string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. device, bot)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(c.errOut, "missing --from")
		return 2
	}
	if role == "" {
		fmt.Fprintln(c.errOut, "missing --role")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(c.errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(c.errOut, "invalid --role: %v\n", err)
		return 2
	}
	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}
	address, rolePath, err := ks.DeriveKeyFromRole(from, role, force)
	if err != nil {
		fmt.Fprintf(c.errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(c.out, "Created role key: %s\n", address)
	fmt.Fprintf(c.out, "Stored at: %s\n", rolePath)
	return 0
}

func (c *cli) cmdKeyAddress(args []string) int {
	fs := flag.NewFlagSet("key address", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var name string
	var role string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (if set, prints the derived role key address)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(c.errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(c.errOut, "invalid --name: %v\n", err)
		return 2
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			fmt.Fprintf(c.errOut, "invalid --role: %v\n", err)
			return 2
		}
	}
	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}
	address, err := ks.Address(name, role)
	if err != nil {
		fmt.Fprintf(c.errOut, "load key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(c.out, address)
	return 0
}

func (c *cli) cmdKeyList(args []string) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(c.errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(c.out, "%s %s\n", e.Identifier, e.Address)
		for _, r := range e.Roles {
			fmt.Fprintf(c.out, "  - %s\n", r)
		}
	}
	return 0
}
