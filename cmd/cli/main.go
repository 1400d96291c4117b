// Admin CLI for inspecting reservations without touching the database by hand.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sebitservices/pedidos-reservas/internal/store"
)

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listLimit := listCmd.Int("limit", 20, "Maximum number of reservations to print")

	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	showRef := showCmd.String("ref", "", "external_reference of the reservation")

	if len(os.Args) < 2 {
		fmt.Println("expected 'list' or 'show' subcommand")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		listReservations(*listLimit)
	case "show":
		showCmd.Parse(os.Args[2:])
		if *showRef == "" {
			fmt.Println("ref is required")
			showCmd.PrintDefaults()
			os.Exit(1)
		}
		showReservation(*showRef)
	default:
		fmt.Println("expected 'list' or 'show' subcommand")
		os.Exit(1)
	}
}

func openStore() *store.Store {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./reservas.db"
	}

	db, err := store.NewStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	// Ensure table exists if running cli before server
	if err := db.InitSchema(); err != nil {
		log.Fatalf("Failed to init schema: %v", err)
	}
	return db
}

func listReservations(limit int) {
	db := openStore()
	defer db.Close()

	reservations, err := db.GetAllReservations(context.Background(), limit, 0)
	if err != nil {
		log.Fatalf("Failed to list reservations: %v", err)
	}
	for _, r := range reservations {
		fmt.Printf("%-16s %-12s confirmed=%-5v %s <%s> total=%.0f\n",
			r.ExternalReference, r.Status, r.ConfirmationSent, r.CustomerName, r.CustomerEmail, r.Total)
	}
	if len(reservations) == 0 {
		fmt.Println("no reservations")
	}
}

func showReservation(reference string) {
	db := openStore()
	defer db.Close()

	r, err := db.GetReservation(context.Background(), reference)
	if err != nil {
		log.Fatalf("Failed to load reservation: %v", err)
	}
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode reservation: %v", err)
	}
	fmt.Println(string(out))
}
