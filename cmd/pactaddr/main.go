package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/config"
	"github.com/rohit0110/pact/internal/custody"
)

func main() {
	var (
		programID   = flag.String("program", config.DefaultProgramID, "Program id the addresses belong to")
		name        = flag.String("name", "", "Pact name")
		creator     = flag.String("creator", "", "Pact creator (base58)")
		participant = flag.String("participant", "", "Participant whose stake record to derive (defaults to creator)")
		owner       = flag.String("owner", "", "Profile owner (base58)")
		showHex     = flag.Bool("hex", false, "Also print raw address bytes as hex")
	)
	flag.Parse()

	log.SetFlags(0)

	if *name == "" && *owner == "" {
		fmt.Println("Usage: pactaddr -name <pact name> -creator <key> [-participant <key>] [-owner <key>] [-program <id>]")
		os.Exit(1)
	}

	program, err := solana.PublicKeyFromBase58(*programID)
	if err != nil {
		log.Fatalf("❌ Invalid program id: %v", err)
	}
	deriver, err := custody.NewDeriver(program)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	show := func(label string, d custody.Derivation) {
		fmt.Printf("%-8s %s bump=%d\n", label, d.Address, d.Bump)
		if *showHex {
			fmt.Printf("%-8s %s\n", "", hex.EncodeToString(d.Address.Bytes()))
		}
	}

	if *name != "" {
		creatorKey := mustKey("creator", *creator)

		pactAddr, err := deriver.Pact(*name, creatorKey)
		if err != nil {
			log.Fatalf("❌ Failed to derive pact: %v", err)
		}
		show("pact", pactAddr)

		vault, err := deriver.Vault(pactAddr.Address)
		if err != nil {
			log.Fatalf("❌ Failed to derive vault: %v", err)
		}
		show("vault", vault)

		member := creatorKey
		if *participant != "" {
			member = mustKey("participant", *participant)
		}
		stake, err := deriver.Stake(member, pactAddr.Address)
		if err != nil {
			log.Fatalf("❌ Failed to derive stake record: %v", err)
		}
		show("stake", stake)
	}

	if *owner != "" {
		profile, err := deriver.Profile(mustKey("owner", *owner))
		if err != nil {
			log.Fatalf("❌ Failed to derive profile: %v", err)
		}
		show("profile", profile)
	}
}

func mustKey(field, value string) solana.PublicKey {
	if value == "" {
		log.Fatalf("❌ -%s is required", field)
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		log.Fatalf("❌ Invalid %s: %v", field, err)
	}
	return key
}
