// Command resolve-address is the CLI entrypoint from spec §6: it loads the
// reference hierarchy (required) plus the optional postal/abbreviation/
// spelling/coordinate/embedding collaborators, then resolves addresses
// given on stdin or as positional arguments. Grounded on the teacher's
// main.go bootstrap sequence (loadConfig -> initLogger -> wire services),
// re-expressed around explicit flags instead of a Gin HTTP server per
// spec.md's Non-goals.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mtarikozcan/turkish-address-system/helpers/utils"
	"github.com/mtarikozcan/turkish-address-system/internal/addrparse"
	"github.com/mtarikozcan/turkish-address-system/internal/cluster"
	"github.com/mtarikozcan/turkish-address-system/internal/config"
	"github.com/mtarikozcan/turkish-address-system/internal/corrector"
	"github.com/mtarikozcan/turkish-address-system/internal/embed"
	"github.com/mtarikozcan/turkish-address-system/internal/geocode"
	"github.com/mtarikozcan/turkish-address-system/internal/hierarchy"
	"github.com/mtarikozcan/turkish-address-system/internal/match"
	"github.com/mtarikozcan/turkish-address-system/internal/model"
	"github.com/mtarikozcan/turkish-address-system/internal/pipeline"
	"github.com/mtarikozcan/turkish-address-system/internal/pipelineerr"
	"github.com/mtarikozcan/turkish-address-system/internal/refdb"
	"github.com/mtarikozcan/turkish-address-system/internal/refdb/search"
	"github.com/mtarikozcan/turkish-address-system/internal/refdb/snapshot"
	"github.com/mtarikozcan/turkish-address-system/internal/validate"
)

// record wraps one resolved address with a per-invocation request id, so
// batched stdout output can be correlated back to a single CLI run.
type record struct {
	RequestID string `json:"request_id"`
	model.PipelineResult
}

// loadDefaultsFromViper mirrors the teacher's app.yaml/env default-loading
// step: an optional ./config/resolver.yaml (or RESOLVER_-prefixed env vars)
// supplies flag defaults that unset command-line flags fall back to, so the
// same binary can run unconfigured in a CI job and configured in an
// operator's shell.
func loadDefaultsFromViper() {
	viper.SetConfigName("resolver")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("RESOLVER")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig() // absent config file is not an error; flags/env still apply
}

// applyViperDefault fills flag (when the user left it at its zero value)
// from the matching viper key, letting a resolver.yaml/env var stand in for
// a CLI flag the operator didn't pass explicitly.
func applyViperDefault(dst *string, key string) {
	if *dst != "" {
		return
	}
	if v := viper.GetString(key); v != "" {
		*dst = v
	}
}

// Exit codes from spec §6.
const (
	exitOK              = 0
	exitInternalError   = 1
	exitMalformedFile   = 2
	exitMissingRequired = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("resolve-address", flag.ContinueOnError)
	dbHierarchy := fs.String("db-hierarchy", "", "path to the il_adi,ilce_adi,mahalle_adi[,source] CSV (required)")
	postalPath := fs.String("postal", "", "path to the postal_code,il,ilce CSV")
	abbrevPath := fs.String("abbrev", "", "path to the abbreviation JSON file")
	spellingPath := fs.String("spelling", "", "path to the spelling-correction JSON file")
	coordsDir := fs.String("coords-dir", "", "directory containing street/neighborhood/district/province coordinate files")
	embeddingEndpoint := fs.String("embedding", "", "embedding service endpoint (enables semantic-channel fidelity)")
	configPath := fs.String("config", "", "path to a weights/thresholds YAML override")
	mode := fs.String("mode", "resolve", "resolve | similarity | dedupe")
	mongoURI := fs.String("mongo-uri", "", "optional MongoDB URI for a warm-start reference-index snapshot")
	mongoDB := fs.String("mongo-db", "address_resolver", "MongoDB database for the snapshot collection")
	mongoCollection := fs.String("mongo-collection", "gazetteer_snapshots", "MongoDB collection for the snapshot")
	gazetteerVersion := fs.String("gazetteer-version", "", "snapshot version key (e.g. a hash of --db-hierarchy's contents)")
	meiliURL := fs.String("meili-url", "", "optional Meilisearch host for accelerated fuzzy admin-name search")
	meiliKey := fs.String("meili-key", "", "Meilisearch API key")
	meiliIndex := fs.String("meili-index", "gazetteer", "Meilisearch index name")
	if err := fs.Parse(args); err != nil {
		return exitInternalError
	}

	logger := initLogger()
	defer logger.Sync()

	loadDefaultsFromViper()
	applyViperDefault(dbHierarchy, "db_hierarchy")
	applyViperDefault(postalPath, "postal")
	applyViperDefault(abbrevPath, "abbrev")
	applyViperDefault(spellingPath, "spelling")
	applyViperDefault(coordsDir, "coords_dir")
	applyViperDefault(embeddingEndpoint, "embedding")

	if *dbHierarchy == "" {
		logger.Error("missing required flag", zap.String("flag", "--db-hierarchy"))
		return exitMissingRequired
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return exitInternalError
	}

	idx, exitCode := buildReferenceIndex(context.Background(), *dbHierarchy, *postalPath, snapshotConfig{
		mongoURI: *mongoURI, database: *mongoDB, collection: *mongoCollection, version: *gazetteerVersion,
	}, logger)
	if exitCode != exitOK {
		return exitCode
	}

	if *meiliURL != "" {
		if err := seedGazetteerSearch(idx, search.Config{Host: *meiliURL, APIKey: *meiliKey, IndexName: *meiliIndex}, logger); err != nil {
			logger.Warn("meilisearch acceleration unavailable, falling back to the in-memory index", zap.Error(err))
		}
	}

	table, exitCode := buildCorrectionTable(*abbrevPath, *spellingPath, logger)
	if exitCode != exitOK {
		return exitCode
	}

	tables := geocode.NewTables()
	if *coordsDir != "" {
		if err := loadCoordTables(*coordsDir, tables); err != nil {
			logger.Error("failed to load coordinate files", zap.Error(err))
			return exitMalformedFile
		}
	}

	var embedder embed.Provider
	if *embeddingEndpoint != "" {
		embedder = embed.NewHTTPProvider(*embeddingEndpoint)
	}

	c := corrector.New(table, idx)
	p := addrparse.New(idx)
	h := hierarchy.New(idx)
	v := validate.New(idx)
	g := geocode.New(tables)
	weights := match.Weights{
		Semantic:     cfg.Matcher.Semantic,
		Geographic:   cfg.Matcher.Geographic,
		Textual:      cfg.Matcher.Textual,
		Hierarchical: cfg.Matcher.Hierarchical,
	}
	m := match.New(weights, cfg.Thresholds.MatchDecision, c, p, g, embedder)

	cache, err := pipeline.NewCache(cfg.Cache, logger)
	if err != nil {
		logger.Warn("result cache disabled", zap.Error(err))
		cache = nil
	}
	pl := pipeline.New(c, p, h, v, g, m, cfg.Pipeline, cache, logger)

	switch *mode {
	case "similarity":
		return similarityFromArgs(pl, fs.Args())
	case "dedupe":
		cl := cluster.New(m, cfg.Thresholds.DuplicateCluster)
		return dedupeFromStdinOrArgs(cl, fs.Args())
	default:
		return resolveFromStdinOrArgs(pl, fs.Args())
	}
}

// similarityFromArgs implements the "similarity(rawA, rawB)" library entry
// point (spec §6): exactly two positional addresses are required.
func similarityFromArgs(pl *pipeline.Pipeline, positional []string) int {
	if len(positional) != 2 {
		fmt.Fprintln(os.Stderr, "similarity mode requires exactly two positional addresses")
		return exitInternalError
	}
	res := pl.Similarity(context.Background(), positional[0], positional[1])
	if err := json.NewEncoder(os.Stdout).Encode(res); err != nil {
		return exitInternalError
	}
	return exitOK
}

// dedupeFromStdinOrArgs implements the "deduplicate([raw], threshold)"
// library entry point (spec §6): the whole batch (positional args, or every
// stdin line) is clustered in one call.
func dedupeFromStdinOrArgs(cl *cluster.Clusterer, positional []string) int {
	raws := positional
	if len(raws) == 0 {
		var lines []string
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return exitInternalError
		}
		raws = lines
	}
	res := cl.Cluster(context.Background(), raws)
	if err := json.NewEncoder(os.Stdout).Encode(res); err != nil {
		return exitInternalError
	}
	return exitOK
}

func resolveFromStdinOrArgs(pl *pipeline.Pipeline, positional []string) int {
	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	requestID := utils.NewRequestID()

	emit := func(raw string) error {
		return enc.Encode(record{RequestID: requestID, PipelineResult: pl.Resolve(ctx, raw)})
	}

	if len(positional) > 0 {
		for _, raw := range positional {
			if err := emit(raw); err != nil {
				return exitInternalError
			}
		}
		return exitOK
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		raw := scanner.Text()
		if raw == "" {
			continue
		}
		if err := emit(raw); err != nil {
			return exitInternalError
		}
	}
	if err := scanner.Err(); err != nil {
		return exitInternalError
	}
	return exitOK
}

// snapshotConfig carries the optional MongoDB warm-start settings; mongoURI
// empty disables the snapshot path entirely.
type snapshotConfig struct {
	mongoURI, database, collection, version string
}

// buildReferenceIndex loads the reference hierarchy, preferring a cached
// MongoDB snapshot (internal/refdb/snapshot) over re-parsing the CSV when
// one is configured and matches the requested version, and writing a fresh
// snapshot back after a cold parse so later runs can skip it.
func buildReferenceIndex(ctx context.Context, hierarchyPath, postalPath string, sc snapshotConfig, logger *zap.Logger) (*refdb.ReferenceIndex, int) {
	var store *snapshot.Store
	if sc.mongoURI != "" {
		s, disconnect, err := snapshot.Connect(ctx, sc.mongoURI, sc.database, sc.collection)
		if err != nil {
			logger.Warn("gazetteer snapshot store unavailable, parsing CSV directly", zap.Error(err))
		} else {
			defer disconnect(ctx)
			store = s
			if sc.version != "" {
				if rows, ok, err := store.Load(ctx, sc.version); err == nil && ok {
					logger.Info("loaded reference hierarchy from snapshot", zap.Int("rows", len(rows)))
					return finishReferenceIndex(rows, postalPath, logger)
				}
			}
		}
	}

	f, err := os.Open(hierarchyPath)
	if err != nil {
		logger.Error("reference hierarchy file unavailable", zap.Error(err))
		return nil, exitMissingRequired
	}
	defer f.Close()

	rows, err := refdb.LoadHierarchyCSV(f)
	if err != nil {
		logger.Error("reference hierarchy file malformed", zap.Error(err))
		return nil, exitMalformedFile
	}

	if store != nil && sc.version != "" {
		if err := store.Save(ctx, sc.version, rows); err != nil {
			logger.Warn("failed to persist gazetteer snapshot", zap.Error(err))
		}
	}

	return finishReferenceIndex(rows, postalPath, logger)
}

func finishReferenceIndex(rows []refdb.AdminRecord, postalPath string, logger *zap.Logger) (*refdb.ReferenceIndex, int) {
	idx := refdb.Build(rows)
	if idx.MalformedRows > 0 {
		logger.Warn("skipped malformed reference rows",
			zap.Int("count", idx.MalformedRows),
			zap.String("kind", string(pipelineerr.MalformedReference)))
	}

	if postalPath != "" {
		pf, err := os.Open(postalPath)
		if err != nil {
			logger.Error("postal file unavailable", zap.Error(err))
			return nil, exitMissingRequired
		}
		defer pf.Close()
		if err := refdb.LoadPostalCSV(pf, idx); err != nil {
			logger.Error("postal file malformed", zap.Error(err))
			return nil, exitMalformedFile
		}
	}
	return idx, exitOK
}

// seedGazetteerSearch connects to Meilisearch and pushes the province list
// so operators who opt into --meili-url get typo-tolerant search seeded on
// every cold start (internal/refdb/search).
func seedGazetteerSearch(idx *refdb.ReferenceIndex, cfg search.Config, logger *zap.Logger) error {
	gs, err := search.NewGazetteerSearcher(cfg, idx, logger.Sugar())
	if err != nil {
		return err
	}
	return gs.SeedProvinces()
}

func buildCorrectionTable(abbrevPath, spellingPath string, logger *zap.Logger) (corrector.Table, int) {
	table := corrector.DefaultTable()
	if abbrevPath != "" {
		m, err := readJSONStringMap(abbrevPath)
		if err != nil {
			logger.Error("abbreviation file malformed", zap.Error(err))
			return table, exitMalformedFile
		}
		for k, v := range m {
			table.Abbreviations[k] = v
		}
	}
	if spellingPath != "" {
		m, err := readJSONStringMap(spellingPath)
		if err != nil {
			logger.Error("spelling file malformed", zap.Error(err))
			return table, exitMalformedFile
		}
		for k, v := range m {
			table.Spellings[k] = v
		}
	}
	return table, exitOK
}

func readJSONStringMap(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// loadCoordTables reads the four coordinate files named street.json,
// neighborhood.json, district.json, province.json from dir (spec §6:
// "key -> (lat, lon)"), skipping any file that doesn't exist.
func loadCoordTables(dir string, tables geocode.Tables) error {
	targets := map[string]map[string]model.Coordinate{
		"street.json":       tables.Street,
		"neighborhood.json": tables.Neighborhood,
		"district.json":     tables.District,
		"province.json":     tables.Province,
	}

	for name, dest := range targets {
		path := filepath.Join(dir, name)
		b, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		var raw map[string]geocodeCoordJSON
		if err := json.Unmarshal(b, &raw); err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		for key, v := range raw {
			dest[key] = model.Coordinate{Latitude: v.Lat, Longitude: v.Lon}
		}
	}
	return nil
}

type geocodeCoordJSON struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func initLogger() *zap.Logger {
	env := os.Getenv("APP_ENV")
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot initialize logger:", err)
		os.Exit(exitInternalError)
	}
	return logger
}
