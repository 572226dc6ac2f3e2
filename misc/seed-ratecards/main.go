// Seeds the rate_cards table from the built-in fallback slab tables and,
// optionally, loads a pincode master CSV into the pincodes table.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./misc/seed-ratecards [pincodes.csv]
//
// The CSV is expected as pincode,city,district,state with a header row.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jackc/pgx/v5"

	"courier-broker/internal/models"
)

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer conn.Close(ctx)

	seeded := 0
	zones := []models.Zone{
		models.ZoneWithinCity, models.ZoneWithinState, models.ZoneMetroToMetro,
		models.ZoneRestOfIndia, models.ZoneSpecial,
	}
	for _, carrier := range models.AllCarriers {
		for _, zone := range zones {
			entry, ok := models.DefaultRateCard(carrier, zone)
			if !ok {
				continue
			}
			_, err := conn.Exec(ctx, `
				INSERT INTO rate_cards (carrier, mode, zone, slabs, base, additional, cod_flat, cod_percent)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (carrier, mode, zone) DO NOTHING`,
				entry.Carrier, entry.Mode, entry.Zone,
				entry.Slabs, entry.Base, entry.Additional,
				entry.CODFlat, entry.CODPercent,
			)
			if err != nil {
				log.Fatalf("seed rate card %s/%s: %v", carrier, zone, err)
			}
			seeded++
		}
	}
	fmt.Printf("seeded %d rate cards\n", seeded)

	if len(os.Args) > 1 {
		n, err := loadPincodes(ctx, conn, os.Args[1])
		if err != nil {
			log.Fatalf("load pincodes: %v", err)
		}
		fmt.Printf("loaded %d pincodes\n", n)
	}
}

func loadPincodes(ctx context.Context, conn *pgx.Conn, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		if len(record) < 4 {
			continue
		}
		_, err = conn.Exec(ctx, `
			INSERT INTO pincodes (pincode, city, district, state)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (pincode) DO UPDATE SET
				city = EXCLUDED.city,
				district = EXCLUDED.district,
				state = EXCLUDED.state`,
			record[0], record[1], record[2], record[3],
		)
		if err != nil {
			return count, fmt.Errorf("pincode %s: %w", record[0], err)
		}
		count++
	}
	return count, nil
}
