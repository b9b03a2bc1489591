// Package launcher implements the Launcher (C5): materializes the
// Runtime Agent bootstrap payload and requests a tagged spot
// instance.
package launcher

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"text/template"
	"time"

	"github.com/rvalieris/hyperdrive/pkg/cache"
	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
	"github.com/rvalieris/hyperdrive/pkg/config"
	"github.com/rvalieris/hyperdrive/pkg/hderrors"
	"github.com/rvalieris/hyperdrive/pkg/jobscript"
	"github.com/rvalieris/hyperdrive/pkg/logger"
	"github.com/rvalieris/hyperdrive/pkg/selector"
)

//go:embed userdata.tmpl
var userdataSrc string

var userdataTmpl = template.Must(template.New("userdata").Parse(userdataSrc))

// agentConfig is the single JSON blob substituted into the cloud-init
// payload (§4.5 step 4).
type agentConfig struct {
	JobID     string   `json:"jobid"`
	SQSURL    string   `json:"sqs_url"`
	Prefix    string   `json:"prefix"`
	LogGroup  string   `json:"log_group"`
	ExtraLogs []string `json:"extra_logs"`
}

// Launcher is the Launcher component.
type Launcher struct {
	cache   *cache.Cache
	clients *cloudapi.Clients
	cfg     *config.Config
}

func New(c *cache.Cache, clients *cloudapi.Clients, cfg *config.Config) *Launcher {
	return &Launcher{cache: c, clients: clients, cfg: cfg}
}

// Launch parses the job script, uploads it, picks a placement, builds
// the cloud-init payload, and issues the spot run-instances request
// (§4.5).
func (l *Launcher) Launch(ctx context.Context, jobid, script string) error {
	info, err := jobscript.Parse(jobid, script)
	if err != nil {
		return err
	}

	bucket, keyPrefix := cloudapi.SplitPrefix(l.cfg.Prefix)
	key := cloudapi.JoinKey(keyPrefix, fmt.Sprintf("_jobs/%s", jobid))
	if err := l.clients.UploadBytes(ctx, bucket, key, []byte(script)); err != nil {
		return hderrors.NewError().WithCode(hderrors.CodeCloudUnavailable).
			WithMessage("uploading job script").WithError(err)
	}

	shapes, err := l.cache.ListInstanceShapes()
	if err != nil {
		return err
	}
	features, err := l.cache.ListFeatures()
	if err != nil {
		return err
	}
	quotes, err := l.cache.ListSpotQuotes()
	if err != nil {
		return err
	}

	tieSet, err := selector.Select(shapes, features, quotes, info.Req)
	if err != nil {
		return err
	}
	placement := tieSet[rand.Intn(len(tieSet))]

	payload, err := json.Marshal(agentConfig{
		JobID:     jobid,
		SQSURL:    l.cfg.JobQueueURL,
		Prefix:    l.cfg.Prefix,
		LogGroup:  l.cfg.LogGroupName,
		ExtraLogs: info.LogPaths,
	})
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := userdataTmpl.Execute(&buf, struct{ JSON string }{string(payload)}); err != nil {
		return err
	}

	tags := map[string]string{
		"Name":      info.JobName,
		"HD-JobId":  jobid,
		"HD-Prefix": l.cfg.Prefix,
		"HD-Stack":  l.cfg.StackName,
	}

	instanceID, err := l.clients.RunSpotInstance(ctx, cloudapi.LaunchSpec{
		Shape:            placement.Shape,
		AZ:               placement.AZ,
		AMIID:            l.cfg.AMIID,
		SecurityGroupID:  l.cfg.SecurityGroupID,
		WorkerProfileArn: l.cfg.WorkerProfileArn,
		UserData:         buf.String(),
		ExtraEBSGiB:      placement.ExtraEBS,
		Tags:             tags,
	})
	if err != nil {
		return hderrors.NewError().WithCode(hderrors.CodeCloudUnavailable).
			WithMessage("requesting spot instance").WithError(err)
	}
	if instanceID == "" {
		return hderrors.NewError().WithCode(hderrors.CodeLaunchRejected).
			WithMessage("cloud accepted the request but returned no instance id")
	}

	logger.Infof("launched job %s on %s/%s as %s", jobid, placement.Shape, placement.AZ, instanceID)

	now := time.Now().UTC().Truncate(time.Second)
	return l.cache.UpsertJob(&cache.Job{
		JobID:         jobid,
		JobName:       info.JobName,
		Status:        cache.StatusRunning,
		InstanceID:    instanceID,
		OrigJobscript: script,
		StartTime:     &now,
	})
}
