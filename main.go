package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"murmur/audio"
	"murmur/config"
	"murmur/log"
	"murmur/session"
	"murmur/telemetry"
	"murmur/vad"
)

var version = "dev"

const (
	heartbeatInterval  = 5 * time.Second
	dropReportInterval = time.Second
)

// findDevice resolves a device selector to a concrete capture device.
// The selector matches a device id exactly, or a device name
// case-insensitively as a substring.
func findDevice(ctx audio.Context, selector string) (*audio.DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].ID == selector {
			return &devices[i], nil
		}
	}
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), strings.ToLower(selector)) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", audio.ErrDeviceNotFound, selector)
}

// commandLoop reads control commands from r until EOF or KILL. Each
// line is one command, optionally followed by an argument.
func commandLoop(r *bufio.Scanner, c *session.Controller, em *telemetry.Emitter) {
	for r.Scan() {
		line := strings.TrimSpace(r.Text())
		if line == "" {
			continue
		}
		token, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		log.Debugf("command received: %s", line)

		switch session.ParseCommand(token) {
		case session.Start:
			c.Start(arg)
		case session.Stop:
			c.Stop()
		case session.Pause:
			c.Pause()
		case session.Resume:
			c.Resume()
		case session.Status:
			c.Status()
		case session.Kill:
			c.Kill()
			return
		default:
			em.Error("Unknown command: " + token)
		}
	}
	// stdin closed: the supervisor is gone, shut down.
	c.Kill()
}

func main() {
	configFlag := flag.String("config", "", "Path to YAML config file")
	outputFlag := flag.String("output", "", "Default directory for recording sessions")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	setupFlag := flag.Bool("setup", false, "Select microphone device interactively")
	formatFlag := flag.String("format", "", "Audio container: wav or flac")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	verboseFlag := flag.Bool("verbose", false, "Log debug-level diagnostics")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("murmur " + version)
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *outputFlag != "" {
		cfg.OutputDir = *outputFlag
	}
	if *deviceFlag != "" {
		cfg.Audio.Device = *deviceFlag
	}
	if *formatFlag != "" {
		cfg.Audio.Format = *formatFlag
		if err := cfg.Audio.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	logDirArg := *logPathFlag
	if logDirArg == "" {
		logDirArg = cfg.LogDir
	}
	logDir, err := log.ResolveDir(logDirArg)
	if err == nil {
		log.SetDir(logDir)
		err = log.Init()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
	}
	log.SetVerbose(*verboseFlag)
	defer log.Close()

	em := telemetry.NewEmitter(os.Stdout)
	controller := session.NewController(session.Options{
		OutputRoot: cfg.OutputDir,
		Container:  cfg.Audio.Format,
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		VAD:        vadConfig(cfg.VAD),
		Engine:     cfg.Transcription,
	}, em)

	em.Status("ready")

	ctx, err := audio.NewContext()
	if err != nil {
		controller.SetError()
		em.Error("Audio system unavailable: " + err.Error())
		log.Errorf("audio context: %v", err)
		os.Exit(1)
	}
	defer ctx.Close()

	var info *audio.DeviceInfo
	if *setupFlag {
		info, err = audio.SelectDevice(ctx)
		if err != nil {
			em.Error("Device selection failed: " + err.Error())
			os.Exit(1)
		}
	} else if cfg.Audio.Device != "" {
		info, err = findDevice(ctx, cfg.Audio.Device)
		if err != nil {
			controller.SetError()
			em.Error("Audio device not found: " + cfg.Audio.Device)
			log.Errorf("find device: %v", err)
			os.Exit(1)
		}
	}

	dev, err := audio.NewDevice(ctx, info, audio.Config{
		SampleRate:   cfg.Audio.SampleRate,
		Channels:     cfg.Audio.Channels,
		BufferFrames: cfg.Audio.BufferFrames,
		BitDepth:     cfg.Audio.BitDepth,
		RingFrames:   cfg.Audio.RingFrames,
	})
	if err != nil {
		controller.SetError()
		em.Error("Failed to open audio device: " + err.Error())
		log.Errorf("open device: %v", err)
		os.Exit(1)
	}
	defer dev.Close()

	if err := dev.Start(); err != nil {
		controller.SetError()
		em.Error("Failed to start audio device: " + err.Error())
		log.Errorf("start device: %v", err)
		os.Exit(1)
	}

	em.Info("Audio device started: " + dev.Name())
	if audio.IsBluetooth(dev.Name()) {
		log.Warnf("bluetooth microphone %q, expect degraded capture quality", dev.Name())
	}
	log.Info(fmt.Sprintf("capture running: %s, %d Hz, %d ch, %d-sample buffers",
		dev.Name(), cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.BufferFrames))

	// SIGINT/SIGTERM behave like a KILL command.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		controller.Kill()
	}()

	go commandLoop(bufio.NewScanner(os.Stdin), controller, em)

	stop := make(chan struct{})
	var stopOnce sync.Once
	go func() {
		<-controller.Done()
		stopOnce.Do(func() { close(stop) })
	}()

	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				em.Heartbeat(controller.State().String())
			case <-stop:
				return
			}
		}
	}()

	var lastDropped uint64
	var lastDropReport time.Time
	for frame := range dev.Frames(stop) {
		if err := controller.ProcessFrame(frame); err != nil {
			em.Error("Recording error: " + err.Error())
			log.Errorf("process frame: %v", err)
		}
		if d := dev.Dropped(); d > lastDropped && time.Since(lastDropReport) >= dropReportInterval {
			delta := d - lastDropped
			lastDropped = d
			lastDropReport = time.Now()
			em.Info(fmt.Sprintf("Dropped %d audio frames (total %d)", delta, d))
			log.DroppedFrames(delta, d, dev.Buffered())
		}
	}

	dev.Stop()
	em.Status("stopped")
	log.Info("shutdown complete")
}

func vadConfig(v config.VADConfig) vad.Config {
	return vad.Config{Backend: v.Backend, Threshold: v.Threshold, Mode: v.Mode}
}
