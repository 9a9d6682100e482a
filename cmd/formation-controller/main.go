package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/swarmgrid/formation.control/internal/apf"
	"github.com/swarmgrid/formation.control/internal/audit"
	"github.com/swarmgrid/formation.control/internal/diagdash"
	"github.com/swarmgrid/formation.control/internal/dispatcher"
	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/linkctrl"
	"github.com/swarmgrid/formation.control/internal/linkio"
	"github.com/swarmgrid/formation.control/internal/pathresolver"
	"github.com/swarmgrid/formation.control/internal/positionupdater"
	"github.com/swarmgrid/formation.control/internal/supervisor"
	"github.com/swarmgrid/formation.control/internal/tuning"
	"github.com/swarmgrid/formation.control/internal/version"
	"github.com/swarmgrid/formation.control/internal/vision"
	"github.com/swarmgrid/formation.control/internal/vision/simulate"
)

var (
	calibrationPath = flag.String("calibration", "", "path to camera calibration JSON (camera_matrix, dist_coeffs)")
	tuningPath      = flag.String("config", "", "path to JSON tuning configuration file (defaults compiled in if unset)")
	serialPort      = flag.String("port", "/dev/ttyACM0", "serial port the formation commands are transmitted on")
	diagListen      = flag.String("diag-listen", "localhost:8090", "listen address for the read-only diagnostics surface")
	auditDBPath     = flag.String("audit-db", "formation_audit.db", "path to the SQLite audit log database")
	simulateVision  = flag.Bool("simulate", true, "use a synthetic orbiting-marker vision source instead of a real camera/ArUco binding")
)

func main() {
	flag.Parse()
	log.Printf("formation-controller v%s (git SHA: %s)", version.Version, version.GitSHA)

	tuningCfg, err := loadTuning(*tuningPath)
	if err != nil {
		log.Fatalf("failed to load tuning config: %v", err)
	}

	ctx := fcontext.New(tuningCfg)
	ctx.SetPort(*serialPort)

	source, detector, estimator, calib, err := buildVision(tuningCfg)
	if err != nil {
		log.Fatalf("failed to initialize vision pipeline: %v", err)
	}

	auditLog, err := audit.Open(*auditDBPath)
	if err != nil {
		log.Fatalf("failed to open audit log: %v", err)
	}
	defer auditLog.Close()

	observer := vision.NewObserver(source, detector, calib, ctx)
	analyzer := vision.NewFrameAnalyzer(estimator, calib, ctx, tuningCfg.GetMarkerLength())
	globalSupervisor := supervisor.New(ctx)
	formationDispatcher := dispatcher.New(ctx)
	linkControllers := linkctrl.StartAll(ctx, tuningCfg.GetNumLinks())

	resolver := pathresolver.New(ctx)
	resolver.Recorder = auditLog
	avoidance := apf.New(ctx)

	writer := linkio.NewWriter(linkio.RealPortFactory{}, tuningCfg.GetSerialBaudRate())
	updater := positionupdater.New(ctx, writer)

	dash := diagdash.New(ctx).WithResolver(resolver)
	mux := http.NewServeMux()
	dash.AttachRoutes(mux)
	diagServer := &http.Server{Addr: *diagListen, Handler: mux}

	signalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observer.Start()
	analyzer.Start()
	globalSupervisor.Start()
	formationDispatcher.Start()
	resolver.Start()
	avoidance.Start()
	updater.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("diagnostics surface listening on %s", *diagListen)
		if err := diagServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("diagnostics server error: %v", err)
		}
	}()

	<-signalCtx.Done()
	log.Printf("shutting down")

	observer.Stop()
	analyzer.Stop()
	globalSupervisor.Stop()
	formationDispatcher.Stop()
	linkctrl.StopAll(linkControllers)
	resolver.Stop()
	avoidance.Stop()
	updater.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := diagServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("diagnostics server shutdown error: %v", err)
	}

	wg.Wait()
	log.Printf("graceful shutdown complete")
}

func loadTuning(path string) (*tuning.Config, error) {
	if path == "" {
		return tuning.EmptyConfig(), nil
	}
	return tuning.LoadConfig(path)
}

// loadCalibration reads the named calibration file, or falls back to a
// plausible default intrinsic matrix when running in -simulate mode
// without a real camera.
func loadCalibration(path string) (vision.Calibration, error) {
	if path == "" {
		return vision.Calibration{
			CameraMatrix: [3][3]float64{
				{600, 0, 320},
				{0, 600, 240},
				{0, 0, 1},
			},
			DistCoeffs: []float64{0, 0, 0, 0, 0},
		}, nil
	}
	return vision.FileCalibrationLoader{Path: path}.Load()
}

// buildVision wires the vision pipeline's injected collaborators. Camera
// capture and ArUco marker detection are external dependencies with no
// binding shipped in this module, so the only concrete implementation
// available is the synthetic orbiting-marker source in
// internal/vision/simulate, used unless a future build links in a real one.
func buildVision(cfg *tuning.Config) (vision.FrameSource, vision.MarkerDetector, vision.PoseEstimator, vision.Calibration, error) {
	if !*simulateVision {
		log.Fatalf("no real camera/ArUco binding is linked into this binary; rerun with -simulate or build against a vision backend")
	}

	calib, err := loadCalibration(*calibrationPath)
	if err != nil {
		return nil, nil, nil, vision.Calibration{}, err
	}

	src := simulate.New(fcontext.KnownAgentIDs, 1.0, 20*time.Second)
	detector := simulate.Detector{Source: src}
	estimator := simulate.Estimator{}
	return src, detector, estimator, calib, nil
}
