package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chronicle-rp/server/internal/charvar"
	"github.com/chronicle-rp/server/internal/config"
	"github.com/chronicle-rp/server/internal/data"
	"github.com/chronicle-rp/server/internal/handler"
	"github.com/chronicle-rp/server/internal/hooks"
	"github.com/chronicle-rp/server/internal/netio"
	"github.com/chronicle-rp/server/internal/netio/packet"
	"github.com/chronicle-rp/server/internal/persist"
	"github.com/chronicle-rp/server/internal/scripting"
	"github.com/chronicle-rp/server/internal/system"
	"github.com/chronicle-rp/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m          chronicled  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     roleplay character server             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("CHRONICLE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Load ruleset data tables
	printSection("ruleset")

	factions, err := data.LoadFactionTable(filepath.Join(cfg.Server.DataDir, "factions.yaml"))
	if err != nil {
		return fmt.Errorf("load factions: %w", err)
	}
	classes, err := data.LoadClassTable(filepath.Join(cfg.Server.DataDir, "classes.yaml"))
	if err != nil {
		return fmt.Errorf("load classes: %w", err)
	}
	invTypes, err := data.LoadInvTypeTable(filepath.Join(cfg.Server.DataDir, "inventory_types.yaml"))
	if err != nil {
		return fmt.Errorf("load inventory types: %w", err)
	}

	// 4. Build var registry: core vars first, then ruleset scripts, then seal.
	reg := charvar.NewRegistry(log)
	world.RegisterCoreVars(reg, cfg, factions, classes)

	bus := hooks.NewBus()
	luaEngine := scripting.NewEngine(reg, factions, classes, bus, log)
	defer luaEngine.Close()
	if err := luaEngine.LoadRuleset(cfg.Server.ScriptsDir); err != nil {
		return fmt.Errorf("lua ruleset: %w", err)
	}
	reg.Seal()

	printStat("factions", factions.Count())
	printStat("classes", classes.Count())
	printStat("inventory types", invTypes.Count())
	printStat("character vars", reg.Len())
	printOK("lua ruleset loaded")
	fmt.Println()

	// 5. Connect to PostgreSQL and run migrations
	printSection("database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("postgresql connected")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	fmt.Println()

	// 6. Create repositories, world state, and the character service
	playerRepo := persist.NewPlayerRepo(db)
	charRepo := persist.NewCharacterRepo(db, reg, cfg.Server.Schema)
	invRepo := persist.NewInventoryRepo(db)

	worldState := world.NewState(log)
	service := world.NewService(worldState, reg, charRepo, invRepo, invTypes, bus, cfg, log)

	// 7. Create packet handler registry and register handlers
	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		PlayerRepo: playerRepo,
		CharRepo:   charRepo,
		Config:     cfg,
		Log:        log,
		World:      worldState,
		Service:    service,
		Hooks:      bus,
		Factions:   factions,
		Classes:    classes,
	}
	handler.RegisterAll(pktReg, deps)

	// 8. Create network server
	pktPerSec := 0
	if cfg.RateLimit.Enabled {
		pktPerSec = cfg.RateLimit.PacketsPerSecond
	}
	netServer, err := netio.NewServer(
		cfg.Network.BindAddress,
		cfg.Network.InQueueSize,
		cfg.Network.OutQueueSize,
		pktPerSec,
		log,
	)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	// 9. Create systems and register with runner
	store := netio.NewSessionStore()
	saveTicks := int(cfg.Character.AutosaveInterval.Duration / cfg.Network.TickRate.Duration)
	if saveTicks < 1 {
		saveTicks = 1
	}

	runner := system.NewRunner()
	runner.Register(system.NewInputSystem(netServer, pktReg, store,
		cfg.Network.MaxPacketsPerTick, worldState, playerRepo, bus, log))
	runner.Register(system.NewOutputSystem(store))
	persistSys := system.NewPersistenceSystem(worldState, service, saveTicks, log)
	runner.Register(persistSys)

	// 10. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate.Duration)
	defer ticker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("listening on %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate.Duration)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			persistSys.SaveAll()
			netServer.Shutdown()
			log.Info("server stopped")
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
