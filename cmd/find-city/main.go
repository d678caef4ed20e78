package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/carrier"
	"github.com/jafarshop/backoffice/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/find-city/main.go <city-or-sector>")
		fmt.Println("Example: go run cmd/find-city/main.go \"fes\"")
		os.Exit(1)
	}

	query := os.Args[1]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := carrier.NewClient(cfg.Carrier, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Printf("Searching carrier destinations for: %s\n\n", query)

	cities, err := client.ListCities(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list carrier cities: %v\n", err)
		os.Exit(1)
	}

	matches := carrier.SearchCities(cities, query)
	if len(matches) == 0 {
		fmt.Printf("No city or sector matches '%s' (%d cities checked).\n", query, len(cities))
		fmt.Printf("\nThe carrier rejects deliveries whose city or sector it does not know.\n")
		os.Exit(1)
	}

	for _, city := range matches {
		fmt.Printf("%s\n", city.Name)
		if len(city.Sectors) > 0 {
			fmt.Printf("  Sectors: %s\n", strings.Join(city.Sectors, ", "))
		}
	}
	fmt.Printf("\n%d of %d cities matched.\n", len(matches), len(cities))
}
