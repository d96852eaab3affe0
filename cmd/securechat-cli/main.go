// Command securechat-cli is a minimal local demo of the chat package: it
// creates or unlocks a single-device account against a sqlitestore file
// and exposes the everyday operations (contacts, fingerprint, sharing,
// sending into an established conversation) as subcommands, the way a
// real client's settings/debug screen would.
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"securechat/internal/chat"
	"securechat/internal/config"
	"securechat/internal/envelope"
	"securechat/internal/store/sqlitestore"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	cfg, err := config.Load()
	if err != nil {
		fatalf("loading config: %v", err)
	}

	switch cmd {
	case "create":
		runCreate(cfg, args)
	case "whoami":
		runWhoami(cfg, args)
	case "share":
		runShare(cfg, args)
	case "add-contact":
		runAddContact(cfg, args)
	case "contacts":
		runContacts(cfg, args)
	case "send":
		runSend(cfg, args)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: securechat-cli <create|whoami|share|add-contact|contacts|send> [flags]

Account unlock password is read from SECURECHAT_PASSWORD.`)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "securechat-cli: "+format+"\n", args...)
	os.Exit(1)
}

func password() []byte {
	pw := os.Getenv("SECURECHAT_PASSWORD")
	if pw == "" {
		fatalf("SECURECHAT_PASSWORD must be set")
	}
	return []byte(pw)
}

func openAccount(ctx context.Context, cfg *config.Config) *chat.Account {
	db, err := sqlitestore.Open(cfg.StorePath)
	if err != nil {
		fatalf("opening store at %s: %v", cfg.StorePath, err)
	}
	acct, err := chat.UnlockAccount(ctx, db, password())
	if err != nil {
		fatalf("unlocking account: %v", err)
	}
	return acct
}

func runCreate(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	fs.Parse(args)
	if *name == "" {
		fatalf("create: -name is required")
	}

	ctx := context.Background()
	db, err := sqlitestore.Open(cfg.StorePath)
	if err != nil {
		fatalf("opening store at %s: %v", cfg.StorePath, err)
	}
	defer db.Close()

	acct, err := chat.CreateAccount(ctx, db, password(), *name)
	if err != nil {
		fatalf("creating account: %v", err)
	}
	defer acct.Close()

	if err := acct.GenerateOneTimePrekeys(ctx, 10); err != nil {
		fatalf("generating one-time prekeys: %v", err)
	}

	fmt.Printf("created account %q\nidentity fingerprint: %s\nshare: %s\n",
		*name, acct.Fingerprint(), acct.ShareURI(*name))
}

func runWhoami(cfg *config.Config, args []string) {
	ctx := context.Background()
	acct := openAccount(ctx, cfg)
	defer acct.Close()

	profile, err := acct.Profile(ctx)
	if err != nil {
		fatalf("loading profile: %v", err)
	}
	fmt.Printf("name: %s\nfingerprint: %s\ndevice: %s\n",
		profile.DisplayName, acct.Fingerprint(), acct.DeviceID())
}

func runShare(cfg *config.Config, args []string) {
	ctx := context.Background()
	acct := openAccount(ctx, cfg)
	defer acct.Close()

	profile, err := acct.Profile(ctx)
	if err != nil {
		fatalf("loading profile: %v", err)
	}
	fmt.Println(acct.ShareURI(profile.DisplayName))
}

func runAddContact(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("add-contact", flag.ExitOnError)
	uri := fs.String("uri", "", "securechat://contact sharing URI")
	fs.Parse(args)
	if *uri == "" {
		fatalf("add-contact: -uri is required")
	}

	ctx := context.Background()
	acct := openAccount(ctx, cfg)
	defer acct.Close()

	parsed, err := chat.ParseShareURI(*uri)
	if err != nil {
		fatalf("parsing share URI: %v", err)
	}
	contact, err := acct.AddContact(ctx, parsed.IdentityKey, parsed.Name)
	if err != nil {
		fatalf("adding contact: %v", err)
	}
	fmt.Printf("added contact %q (%s)\nfingerprint: %s\n",
		contact.DisplayName, contact.ID, chat.ContactFingerprint(*contact))
}

func runContacts(cfg *config.Config, args []string) {
	ctx := context.Background()
	acct := openAccount(ctx, cfg)
	defer acct.Close()

	contacts, err := acct.Contacts(ctx)
	if err != nil {
		fatalf("listing contacts: %v", err)
	}
	for _, c := range contacts {
		fmt.Printf("%s  %-20s  verified=%v  blocked=%v\n", c.ID, c.DisplayName, c.Verified, c.Blocked)
	}
}

func runSend(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	contactID := fs.String("contact", "", "contact UUID")
	text := fs.String("text", "", "message text")
	fs.Parse(args)
	if *contactID == "" || *text == "" {
		fatalf("send: -contact and -text are required")
	}

	ctx := context.Background()
	acct := openAccount(ctx, cfg)
	defer acct.Close()

	id, err := uuid.Parse(*contactID)
	if err != nil {
		fatalf("invalid -contact UUID: %v", err)
	}
	contact, err := acct.GetContact(ctx, id)
	if err != nil {
		fatalf("loading contact: %v", err)
	}
	conv, err := acct.GetOrCreateConversation(ctx, contact.ID)
	if err != nil {
		fatalf("loading conversation: %v", err)
	}

	content := envelope.MessageContent{Kind: envelope.ContentText, Text: *text}
	wireBytes, _, err := acct.SendMessage(ctx, conv.ID, content)
	if err != nil {
		fatalf("sending message (has a session been established with this contact yet?): %v", err)
	}

	fmt.Printf("wire bytes (hand these to a Transport): %s\n", base64.StdEncoding.EncodeToString(wireBytes))
}
