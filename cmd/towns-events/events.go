package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/towns-protocol/towns-sub022/compliance"
	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/keys"
	"github.com/towns-protocol/towns-sub022/model"
	"github.com/towns-protocol/towns-sub022/rollup"
	"github.com/towns-protocol/towns-sub022/streamid"
)

func (c *cli) cmdStreamID(args []string) int {
	fs := flag.NewFlagSet("stream-id", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var kindName string
	var identity string

	fs.StringVar(&kindName, "kind", "", "Stream kind: user, space or channel")
	fs.StringVar(&identity, "id", "", "Identity part; a fresh UUID when empty (an address for user streams)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	kind, err := streamid.ParseKind(kindName)
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid --kind: %v\n", err)
		return 2
	}
	var id string
	if identity != "" {
		id = streamid.Make(kind.Prefix(), identity)
	} else {
		if kind == streamid.KindUser {
			fmt.Fprintln(c.errOut, "user stream ids need --id <address>")
			return 2
		}
		if id, err = streamid.MakeUnique(kind, rand.Reader); err != nil {
			fmt.Fprintf(c.errOut, "stream id: %v\n", err)
			return 1
		}
	}
	_, _ = fmt.Fprintln(c.out, id)
	return 0
}

func (c *cli) cmdMake(args []string) int {
	fs := flag.NewFlagSet("make", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var kind string
	var streamID string
	var spaceID string
	var userID string
	var channelID string
	var text string
	var refPath string
	var refStream string
	var prev stringList
	var seedHex string
	var signerName string
	var signerRole string
	var keyFile string
	var saltSeed string

	fs.StringVar(&kind, "kind", "", "Payload kind (inception, invite, join, leave, message, user-invited, user-joined, user-left, channel-created, channel-deleted)")
	fs.StringVar(&streamID, "stream-id", "", "inception: the new stream id; user-*: the stream the user was added to or left")
	fs.StringVar(&spaceID, "space-id", "", "inception of a channel: the parent space id")
	fs.StringVar(&userID, "user", "", "invite/join/leave: user id")
	fs.StringVar(&channelID, "channel-id", "", "channel-created/channel-deleted: channel stream id")
	fs.StringVar(&text, "text", "", "message: text")
	fs.StringVar(&refPath, "ref", "", "Derived kinds: file holding the referenced event")
	fs.StringVar(&refStream, "ref-stream", "", "Derived kinds: stream id of the referenced event")
	fs.Var(&prev, "prev", "Parent event hash (repeatable)")
	fs.StringVar(&seedHex, "seed-hex", "", "secp256k1 private scalar as 64 hex chars")
	fs.StringVar(&signerName, "signer", "", "Use a stored key by name (from 'towns-events key init')")
	fs.StringVar(&signerRole, "signer-role", "", "When using --signer, optionally use a derived role key")
	fs.StringVar(&keyFile, "key-file", "", "Path to a key file (hex) created by 'towns-events key init/derive'")
	fs.StringVar(&saltSeed, "salt-seed", "", "Hex seed for a deterministic salt (reproducible fixtures only)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if kind == "" {
		fmt.Fprintln(c.errOut, "missing --kind")
		return 2
	}
	if seedHex == "" && signerName == "" && keyFile == "" {
		fmt.Fprintln(c.errOut, "missing signer: use --seed-hex, --signer, or --key-file")
		return 2
	}
	if seedHex != "" && (signerName != "" || keyFile != "") {
		fmt.Fprintln(c.errOut, "conflicting signer flags: --seed-hex cannot be combined with --signer or --key-file")
		return 2
	}
	if signerName != "" && keyFile != "" {
		fmt.Fprintln(c.errOut, "conflicting signer flags: --signer cannot be combined with --key-file")
		return 2
	}

	var ref *events.EventRef
	if refPath != "" {
		if refStream == "" {
			fmt.Fprintln(c.errOut, "--ref requires --ref-stream")
			return 2
		}
		refEvent, err := readEvent(refPath)
		if err != nil {
			fmt.Fprintf(c.errOut, "read --ref: %v\n", err)
			return 1
		}
		r := events.MakeEventRef(refStream, refEvent)
		ref = &r
	}

	payload, err := buildPayload(events.PayloadKind(kind), payloadFlags{
		streamID:  streamID,
		spaceID:   spaceID,
		userID:    userID,
		channelID: channelID,
		text:      text,
		ref:       ref,
	})
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid payload: %v\n", err)
		return 2
	}

	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}
	wallet, err := ks.LoadWallet(seedHex, signerName, signerRole, keyFile)
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid signer: %v\n", err)
		return 2
	}

	var opts []events.MakeOption
	if saltSeed != "" {
		seed, err := keys.ParseSeedHex(saltSeed)
		if err != nil {
			fmt.Fprintf(c.errOut, "invalid --salt-seed: %v\n", err)
			return 2
		}
		opts = append(opts, events.WithRand(keys.NewSeededReader(seed)))
	}

	e, err := events.MakeEvent(wallet, payload, prev, opts...)
	if err != nil {
		return c.fail("json", err)
	}
	b, err := events.EncodeEvent(e)
	if err != nil {
		return c.fail("json", err)
	}
	c.logger.Debug("event created", "hash", e.Hash, "kind", kind, "creator", wallet.Address())
	_, _ = c.out.Write(b)
	return 0
}

type payloadFlags struct {
	streamID  string
	spaceID   string
	userID    string
	channelID string
	text      string
	ref       *events.EventRef
}

func buildPayload(kind events.PayloadKind, f payloadFlags) (events.Payload, error) {
	if events.IsDerived(kind) && f.ref == nil {
		return nil, fmt.Errorf("%s requires --ref and --ref-stream", kind)
	}
	switch kind {
	case events.PayloadInception:
		streamKind, ok := streamid.KindOf(f.streamID)
		if !ok {
			return nil, fmt.Errorf("--stream-id %q is not a valid stream id", f.streamID)
		}
		p := events.Inception{StreamID: f.streamID, StreamKind: streamKind}
		if streamKind == streamid.KindChannel {
			if !streamid.IsSpace(f.spaceID) {
				return nil, fmt.Errorf("channel inception requires --space-id of a space stream")
			}
			p.SpaceID = f.spaceID
		}
		return p, nil
	case events.PayloadInvite, events.PayloadJoin, events.PayloadLeave:
		if f.userID == "" {
			return nil, fmt.Errorf("%s requires --user", kind)
		}
		switch kind {
		case events.PayloadInvite:
			return events.Invite{UserID: f.userID}, nil
		case events.PayloadJoin:
			return events.Join{UserID: f.userID}, nil
		default:
			return events.Leave{UserID: f.userID}, nil
		}
	case events.PayloadMessage:
		return events.Message{Text: f.text}, nil
	case events.PayloadUserInvited, events.PayloadUserJoined, events.PayloadUserLeft:
		if !streamid.IsValid(f.streamID) {
			return nil, fmt.Errorf("%s requires a valid --stream-id", kind)
		}
		switch kind {
		case events.PayloadUserInvited:
			return events.UserInvited{StreamID: f.streamID, EventRef: *f.ref}, nil
		case events.PayloadUserJoined:
			return events.UserJoined{StreamID: f.streamID, EventRef: *f.ref}, nil
		default:
			return events.UserLeft{StreamID: f.streamID, EventRef: *f.ref}, nil
		}
	case events.PayloadChannelCreated, events.PayloadChannelDeleted:
		if !streamid.IsChannel(f.channelID) {
			return nil, fmt.Errorf("%s requires --channel-id of a channel stream", kind)
		}
		if kind == events.PayloadChannelCreated {
			return events.ChannelCreated{ChannelID: f.channelID, EventRef: *f.ref}, nil
		}
		return events.ChannelDeleted{ChannelID: f.channelID, EventRef: *f.ref}, nil
	default:
		return nil, fmt.Errorf("unknown payload kind %q", kind)
	}
}

func (c *cli) cmdCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var independent bool
	var format string

	fs.BoolVar(&independent, "independent", false, "Verify events independently and in parallel instead of as a causal chain")
	fs.StringVar(&format, "format", c.cfg.Output, "Output format: json or yaml")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.errOut, "usage: towns-events check [--independent] <events.json>")
		return 2
	}
	list, err := readEvents(fs.Arg(0))
	if err != nil {
		return c.fail(format, err)
	}

	report := model.CheckReport{Mode: "chain", Events: len(list)}
	if independent {
		report.Mode = "independent"
		err = events.CheckEventsConcurrently(context.Background(), list, c.cfg.VerifyConcurrency)
	} else {
		err = events.CheckEvents(list)
	}
	report.OK = err == nil
	report.Error = model.FromError(err)
	if werr := writeOutput(c.out, format, report); werr != nil {
		fmt.Fprintf(c.errOut, "write report: %v\n", werr)
		return 1
	}
	if err != nil {
		c.logger.Warn("event check failed", "mode", report.Mode, "error", err)
		return 1
	}
	return 0
}

func (c *cli) cmdLeaves(args []string) int {
	fs := flag.NewFlagSet("leaves", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var streamID string
	fs.StringVar(&streamID, "stream", "", "Stream id (for error messages)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.errOut, "usage: towns-events leaves [--stream <id>] <events.json>")
		return 2
	}
	list, err := readEvents(fs.Arg(0))
	if err != nil {
		return c.fail("json", err)
	}
	leaves, err := rollup.FindLeafEventHashes(streamID, list)
	if err != nil {
		return c.fail("json", err)
	}
	for _, h := range leaves {
		fmt.Fprintln(c.out, h)
	}
	return 0
}

func (c *cli) cmdRollup(args []string) int {
	fs := flag.NewFlagSet("rollup", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var streamID string
	var format string
	var modeName string
	var verify bool

	fs.StringVar(&streamID, "stream", "", "Stream id")
	fs.StringVar(&format, "format", c.cfg.Output, "Output format: json or yaml")
	fs.StringVar(&modeName, "mode", c.cfg.Compliance.String(), "Unknown payload handling: permissive or strict")
	fs.BoolVar(&verify, "verify", true, "Verify hashes and signatures before applying")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if streamID == "" || fs.NArg() != 1 {
		fmt.Fprintln(c.errOut, "usage: towns-events rollup --stream <id> [--format json|yaml] [--mode permissive|strict] <events.json>")
		return 2
	}
	if !streamid.IsValid(streamID) {
		fmt.Fprintf(c.errOut, "invalid --stream: %q\n", streamID)
		return 2
	}
	mode, err := compliance.ParseMode(modeName)
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid --mode: %v\n", err)
		return 2
	}
	list, err := readEvents(fs.Arg(0))
	if err != nil {
		return c.fail(format, err)
	}
	if verify {
		if err := events.CheckEventsConcurrently(context.Background(), list, c.cfg.VerifyConcurrency); err != nil {
			return c.fail(format, err)
		}
	}

	var rec rollup.Recorder
	view, err := rollup.RollupStream(streamID, list, &rec,
		rollup.WithLogger(c.logger.With("component", "rollup")),
		rollup.WithCompliance(mode),
	)
	for _, n := range rec.Notifications() {
		c.logger.Debug("notification", "name", n.Name, "stream_id", n.StreamID, "target", n.Target)
	}
	if err != nil {
		return c.fail(format, err)
	}
	if werr := writeOutput(c.out, format, model.SummarizeView(view)); werr != nil {
		fmt.Fprintf(c.errOut, "write summary: %v\n", werr)
		return 1
	}
	return 0
}

func readEvent(path string) (*events.FullEvent, error) {
	b, err := readInput(path)
	if err != nil {
		return nil, err
	}
	return events.DecodeEvent(b)
}

func readEvents(path string) ([]*events.FullEvent, error) {
	b, err := readInput(path)
	if err != nil {
		return nil, err
	}
	return events.DecodeEvents(b)
}

// readInput reads path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
