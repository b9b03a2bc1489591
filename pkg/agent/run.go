package agent

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
	"github.com/rvalieris/hyperdrive/pkg/logger"
)

const (
	condaBinPath  = "/opt/conda/bin"
	basedir       = "/tmp/ec2-user"
	workflowDir   = basedir + "/workflow"
	jobscriptPath = basedir + "/job.sh"
	jobUser       = "ec2-user"
)

// Run is the Runtime Agent's top-level routine (§4.7): it starts the
// log streamer, prepares scratch storage, fetches the job script and
// workflow tree, execs the job as an unprivileged user, and reports
// the terminal status — grounded on host.py's run().
func Run(ctx context.Context, cfg *Config, clients *cloudapi.Clients) (err error) {
	start := time.Now()

	streamCtx, cancelStream := context.WithCancel(ctx)
	defer cancelStream()
	streamer := NewLogStreamer(clients, cfg.LogGroup, cfg.JobID, cfg.ExtraLogs)
	go func() {
		if streamErr := streamer.Run(streamCtx); streamErr != nil {
			logger.Errorf("log streamer: %v", streamErr)
		}
	}()

	metricsCtx, cancelMetrics := context.WithCancel(ctx)
	defer cancelMetrics()
	var metrics *Metrics
	metricsDone := make(chan struct{})
	go func() {
		metrics = SampleMetrics(metricsCtx, 10*time.Second, "/tmp")
		close(metricsDone)
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job runner panicked: %v", r)
		}
		status := "SUCCESS"
		if err != nil {
			status = "FAILED"
			logger.Errorf("job %s failed: %v", cfg.JobID, err)
		}
		if sendErr := clients.SendTerminalMessage(context.Background(), cfg.SQSURL, cfg.JobID, status); sendErr != nil {
			logger.Errorf("reporting terminal status: %v", sendErr)
		}
		cancelMetrics()
		<-metricsDone
		if metrics != nil {
			logger.Infof("peak memory: %.1fMB, %.1fGB, %.1f%%",
				metrics.MaxMemMB, metrics.MaxMemMB/1024, 100*metrics.MaxMemMB/metrics.TotMemMB)
			logger.Infof("peak disk: %.1fMB, %.1fGB, %.1f%%",
				metrics.MaxDiskMB, metrics.MaxDiskMB/1024, 100*metrics.MaxDiskMB/metrics.TotDiskMB)
			logger.Infof("peak cpu: %.1f%% / %d cores", metrics.MaxCPUUsage, metrics.NCores)
		}
		logger.Infof("total runtime: %s", time.Since(start))
		// give the log streamer a moment to flush the final lines
		// before the instance powers off (§4.7 phase 5).
		time.Sleep(3 * time.Second)
		cancelStream()
		Poweroff()
	}()

	if err = SetupStorage(); err != nil {
		return err
	}

	pwr, err := user.Lookup(jobUser)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", jobUser, err)
	}

	bucket, keyPrefix := cloudapi.SplitPrefix(cfg.Prefix)

	jobscriptKey := cloudapi.JoinKey(keyPrefix, fmt.Sprintf("_jobs/%s", cfg.JobID))
	script, err := clients.DownloadBytes(ctx, bucket, jobscriptKey)
	if err != nil {
		return fmt.Errorf("downloading job script: %w", err)
	}
	if err = os.MkdirAll(basedir, 0o755); err != nil {
		return err
	}
	if err = os.WriteFile(jobscriptPath, script, 0o755); err != nil {
		return err
	}

	workflowPrefix := cloudapi.JoinKey(keyPrefix, "_workflow")
	if err = clients.DownloadPrefix(ctx, bucket, workflowPrefix, workflowDir); err != nil {
		return fmt.Errorf("syncing workflow: %w", err)
	}

	uid, gid, err := userIDs(pwr)
	if err != nil {
		return err
	}
	if err = chownRecursive(basedir, uid, gid); err != nil {
		return fmt.Errorf("chown %s: %w", basedir, err)
	}

	return execJob(ctx, uid, gid)
}

func userIDs(u *user.User) (uint32, uint32, error) {
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, 0, err
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return 0, 0, err
	}
	return uint32(uid), uint32(gid), nil
}

func chownRecursive(root string, uid, gid uint32) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		return os.Chown(path, int(uid), int(gid))
	})
}

// execJob runs the job script as jobUser (drop_priv in host.py:
// setgroups([]), setgid, setuid, umask 0o22), inheriting stdout so
// its output lands in the cloud-init log the Log Streamer tails.
func execJob(ctx context.Context, uid, gid uint32) error {
	env := os.Environ()
	env = append(env,
		"LC_ALL=C",
		"LANG=C",
		"HOME="+basedir,
		"PATH="+condaBinPath+string(os.PathListSeparator)+os.Getenv("PATH"),
	)

	cmd := exec.CommandContext(ctx, "bash", jobscriptPath)
	cmd.Dir = workflowDir
	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{Uid: uid, Gid: gid, Groups: []uint32{}},
	}

	logger.Info("--JOB-START--")
	prevMask := syscall.Umask(0o22)
	runErr := cmd.Run()
	syscall.Umask(prevMask)
	logger.Info("--JOB-END--")
	if runErr != nil {
		return fmt.Errorf("job script exited with error: %w", runErr)
	}
	return nil
}
