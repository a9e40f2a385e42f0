package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/martivilar/camins/internal/adapters/postgres"
	"github.com/martivilar/camins/internal/core/domain"
	"github.com/martivilar/camins/internal/pkg/config"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source     string           `json:"source"`
	Catalogues []CatalogueEntry `json:"catalogues"`
	Tracks     []TrackEntry     `json:"tracks"`
}

// CatalogueEntry points at a JSON file of monuments.
type CatalogueEntry struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

// TrackEntry points at a zip archive of GPX files. Page identifies the
// listing page the archive was scraped from; each GPX file inside is one
// track, numbered by position.
type TrackEntry struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	URL  string `json:"url"`
	Page int    `json:"page"`
}

// catalogueMonument is the on-disk catalogue record.
type catalogueMonument struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Region string  `json:"region"`
	URL    string  `json:"url"`
}

// ---------------------------------------------------------------------------
// GPX types (only the parts we read)
// ---------------------------------------------------------------------------

type gpxDoc struct {
	Tracks []gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Name     string       `xml:"name"`
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Time string  `xml:"time"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("camins-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	monumentRepo := postgres.NewMonumentRepo(db)
	trackpointRepo := postgres.NewTrackpointRepo(db)

	// Load manifest
	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	log.Printf("Camins Ingestor — %d catalogues, %d track archives from %s",
		len(manifest.Catalogues), len(manifest.Tracks), manifest.Source)

	// Filter sources (optional CLI arg: slug list)
	slugFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			slugFilter[strings.TrimSpace(s)] = true
		}
	}

	client := &http.Client{Timeout: 120 * time.Second}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 concurrent downloads

	for _, cat := range manifest.Catalogues {
		if len(slugFilter) > 0 && !slugFilter[cat.Slug] {
			continue
		}

		wg.Add(1)
		go func(c CatalogueEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ingestCatalogue(ctx, monumentRepo, client, c); err != nil {
				log.Printf("ERROR [%s]: %v", c.Slug, err)
			}
		}(cat)
	}

	for _, tr := range manifest.Tracks {
		if len(slugFilter) > 0 && !slugFilter[tr.Slug] {
			continue
		}

		wg.Add(1)
		go func(t TrackEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ingestTracks(ctx, trackpointRepo, client, t); err != nil {
				log.Printf("ERROR [%s]: %v", t.Slug, err)
			}
		}(tr)
	}

	wg.Wait()
	log.Println("ingestion complete")
}

// ---------------------------------------------------------------------------
// Monument catalogues
// ---------------------------------------------------------------------------

func ingestCatalogue(ctx context.Context, repo *postgres.MonumentRepo, client *http.Client, cat CatalogueEntry) error {
	log.Printf("[%s] downloading catalogue from %s", cat.Slug, cat.URL)

	body, err := fetch(client, cat.URL)
	if err != nil {
		return err
	}

	var records []catalogueMonument
	if err := json.Unmarshal(body, &records); err != nil {
		return fmt.Errorf("parse catalogue: %w", err)
	}

	const batchSize = 500
	var monuments []domain.Monument
	total := 0
	skipped := 0

	flush := func() error {
		if len(monuments) == 0 {
			return nil
		}
		if err := repo.UpsertBatch(ctx, monuments); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}
		total += len(monuments)
		monuments = monuments[:0]
		return nil
	}

	for _, r := range records {
		if r.Name == "" || (r.Lat == 0 && r.Lon == 0) {
			skipped++
			continue
		}
		monuments = append(monuments, domain.Monument{
			Name:     strings.TrimSpace(r.Name),
			Type:     strings.TrimSpace(r.Type),
			Location: domain.GeoPoint{Lat: r.Lat, Lon: r.Lon},
			Region:   strings.TrimSpace(r.Region),
			URL:      r.URL,
		})
		if len(monuments) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	log.Printf("[%s]   monuments: %d (skipped %d without coordinates)", cat.Slug, total, skipped)
	return nil
}

// ---------------------------------------------------------------------------
// GPX track archives
// ---------------------------------------------------------------------------

func ingestTracks(ctx context.Context, repo *postgres.TrackpointRepo, client *http.Client, tr TrackEntry) error {
	log.Printf("[%s] downloading tracks from %s", tr.Slug, tr.URL)

	body, err := fetch(client, tr.URL)
	if err != nil {
		return err
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	// Stable track numbering across re-runs: sort GPX entries by name.
	var names []string
	files := make(map[string]*zip.File)
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".gpx") {
			names = append(names, f.Name)
			files[f.Name] = f
		}
	}
	sort.Strings(names)

	const batchSize = 1000
	var points []domain.Trackpoint
	total := 0

	flush := func() error {
		if len(points) == 0 {
			return nil
		}
		if err := repo.InsertBatch(ctx, points); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		total += len(points)
		points = points[:0]
		return nil
	}

	for track, name := range names {
		rc, err := files[name].Open()
		if err != nil {
			log.Printf("[%s]   %s: %v", tr.Slug, name, err)
			continue
		}
		doc, err := parseGPX(rc)
		rc.Close()
		if err != nil {
			log.Printf("[%s]   %s: %v", tr.Slug, name, err)
			continue
		}

		for _, t := range doc.Tracks {
			for _, seg := range t.Segments {
				for _, p := range seg.Points {
					ts, err := time.Parse(time.RFC3339, p.Time)
					if err != nil {
						continue // points without a valid timestamp cannot be ordered
					}
					points = append(points, domain.Trackpoint{
						Location: domain.GeoPoint{Lat: p.Lat, Lon: p.Lon},
						Time:     ts,
						Track:    track,
						Page:     tr.Page,
					})
					if len(points) >= batchSize {
						if err := flush(); err != nil {
							return err
						}
					}
				}
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	log.Printf("[%s]   trackpoints: %d from %d GPX files", tr.Slug, total, len(names))
	return nil
}

func parseGPX(r io.Reader) (*gpxDoc, error) {
	var doc gpxDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}
	return &doc, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func fetch(client *http.Client, url string) ([]byte, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
