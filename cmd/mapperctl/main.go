// Command mapperctl inspects how ddbmapper resolves configuration and reads
// items through the same resolution.
//
//	mapperctl resolve -config mapper.yaml -table orders -prefix staging-
//	mapperctl get -config mapper.yaml -table orders -key id=o1 -nkey line=3
//
// Settings may also come from the environment or a .env file in the working
// directory: MAPPER_CONFIG names the config file and DYNAMODB_ENDPOINT points
// the client at DynamoDB Local.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/joho/godotenv"
	"github.com/nisimpson/ddbmapper"
)

func main() {
	if err := loadEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "resolve":
		err = runResolve(os.Args[2:], os.Stdout)
	case "get":
		err = runGet(context.Background(), os.Args[2:], os.Stdout)
	case "-h", "-help", "--help", "help":
		usage(os.Stdout)
		return
	default:
		usage(os.Stderr)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "mapperctl:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: mapperctl <resolve|get> [flags]")
}

// loadEnv loads path into the environment when it exists. Variables already set win.
func loadEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// commonFlags are the flags shared by every command.
type commonFlags struct {
	configPath string
	table      string
	tableName  string
	prefix     string
	behavior   string
	consistent bool
	verbose    bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", os.Getenv("MAPPER_CONFIG"), "mapper config file (YAML)")
	fs.StringVar(&c.table, "table", "", "declared table name")
	fs.StringVar(&c.tableName, "name", "", "per-call exact table name override")
	fs.StringVar(&c.prefix, "prefix", "", "per-call table prefix override")
	fs.StringVar(&c.behavior, "behavior", "", "per-call save behavior")
	fs.BoolVar(&c.consistent, "consistent", false, "per-call strongly consistent reads")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
}

// mapperConfig reads the mapper-level config, if any.
func (c *commonFlags) mapperConfig() (ddbmapper.Config, error) {
	if c.configPath == "" {
		return ddbmapper.Config{}, nil
	}
	f, err := os.Open(c.configPath)
	if err != nil {
		return ddbmapper.Config{}, err
	}
	defer f.Close()
	return ddbmapper.LoadConfig(f)
}

// callOptions converts the per-call flags into config options. Only flags that
// were given on the command line are set.
func (c *commonFlags) callOptions(fs *flag.FlagSet) ([]func(*ddbmapper.Config), error) {
	var opts []func(*ddbmapper.Config)
	var err error

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			opts = append(opts, ddbmapper.WithTableName(c.tableName))
		case "prefix":
			opts = append(opts, ddbmapper.WithTablePrefix(c.prefix))
		case "behavior":
			b, perr := ddbmapper.ParseSaveBehavior(c.behavior)
			if perr != nil {
				err = perr
				return
			}
			opts = append(opts, ddbmapper.WithSaveBehavior(b))
		case "consistent":
			opts = append(opts, ddbmapper.WithConsistentReads(c.consistent))
		}
	})
	if c.tableName != "" && c.prefix != "" {
		return nil, errors.New("-name and -prefix are mutually exclusive")
	}
	return opts, err
}

func (c *commonFlags) logger() *slog.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolution is the output of the resolve command.
type resolution struct {
	DeclaredTable   string `json:"declaredTable"`
	Table           string `json:"table"`
	SaveBehavior    string `json:"saveBehavior"`
	ConsistentReads bool   `json:"consistentReads"`
}

func resolveFlags(fs *flag.FlagSet, flags *commonFlags) (ddbmapper.EffectiveConfig, error) {
	if flags.table == "" {
		return ddbmapper.EffectiveConfig{}, errors.New("-table is required")
	}

	base, err := flags.mapperConfig()
	if err != nil {
		return ddbmapper.EffectiveConfig{}, err
	}

	opts, err := flags.callOptions(fs)
	if err != nil {
		return ddbmapper.EffectiveConfig{}, err
	}

	if len(opts) == 0 {
		return ddbmapper.Resolve(base, nil), nil
	}
	override := ddbmapper.NewConfig(opts...)
	return ddbmapper.Resolve(base, &override), nil
}

func runResolve(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	var flags commonFlags
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	eff, err := resolveFlags(fs, &flags)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resolution{
		DeclaredTable:   flags.table,
		Table:           eff.TableName(flags.table),
		SaveBehavior:    eff.SaveBehavior.String(),
		ConsistentReads: eff.ConsistentReads,
	})
}

// keyFlag collects name=value pairs into key attributes of one scalar type.
type keyFlag struct {
	key     ddbmapper.Item
	numeric bool
}

func (k *keyFlag) String() string { return "" }

func (k *keyFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("key %q must be name=value", s)
	}
	if k.numeric {
		k.key[name] = &types.AttributeValueMemberN{Value: value}
	} else {
		k.key[name] = &types.AttributeValueMemberS{Value: value}
	}
	return nil
}

func runGet(ctx context.Context, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	var flags commonFlags
	flags.register(fs)

	key := ddbmapper.Item{}
	fs.Var(&keyFlag{key: key}, "key", "string key attribute name=value (repeatable)")
	fs.Var(&keyFlag{key: key, numeric: true}, "nkey", "number key attribute name=value (repeatable)")
	endpoint := fs.String("endpoint", os.Getenv("DYNAMODB_ENDPOINT"), "DynamoDB endpoint override")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(key) == 0 {
		return errors.New("at least one -key or -nkey is required")
	}

	eff, err := resolveFlags(fs, &flags)
	if err != nil {
		return err
	}
	table := eff.TableName(flags.table)
	logger := flags.logger()

	var clientOpts []func(*ddbmapper.ClientOptions)
	if *endpoint != "" {
		clientOpts = append(clientOpts, ddbmapper.WithEndpoint(*endpoint))
	}
	client, err := ddbmapper.NewDynamoDBClient(ctx, clientOpts...)
	if err != nil {
		return err
	}

	logger.Debug("getting item", "table", table, "consistent", eff.ConsistentReads)

	item, err := ddbmapper.NewDynamoDBStore(client).GetItem(ctx, table, key, eff.ConsistentReads)
	if err != nil {
		if ddbmapper.IsResourceNotFound(err) {
			return fmt.Errorf("table %s does not exist: %w", table, err)
		}
		return err
	}
	if item == nil {
		return fmt.Errorf("table %s: %w", table, ddbmapper.ErrItemNotFound)
	}

	var doc map[string]any
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return fmt.Errorf("failed to decode item: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
