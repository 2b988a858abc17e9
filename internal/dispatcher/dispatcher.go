package dispatcher

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/rs/zerolog"

	"github.com/mumzworld-tech/lifecyclerunner/internal/config"
	"github.com/mumzworld-tech/lifecyclerunner/internal/event"
	"github.com/mumzworld-tech/lifecyclerunner/internal/logger"
)

const (
	TaskDefinition = "ansible-runner"
	ContainerName  = "ansible-runner"

	// Environment variable names seen by the runner container
	EnvPlaybook    = "Playbook"
	EnvASGName     = "ASG_NAME"
	EnvHookName    = "HOOK_NAME"
	EnvActionToken = "ACTION_TOKEN"
)

// TaskRunner is the part of the ECS API the dispatcher uses.
// *ecs.Client satisfies it.
type TaskRunner interface {
	RunTask(ctx context.Context, params *ecs.RunTaskInput, optFns ...func(*ecs.Options)) (*ecs.RunTaskOutput, error)
}

// Dispatcher turns one lifecycle event into one RunTask call
type Dispatcher struct {
	runner TaskRunner
	cfg    *config.Config
	log    zerolog.Logger
}

func New(runner TaskRunner, cfg *config.Config, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		runner: runner,
		cfg:    cfg,
		log:    log,
	}
}

// Handle is the Lambda handler. Every failure is returned unchanged in
// meaning so the Lambda runtime records the invocation as failed.
func (d *Dispatcher) Handle(ctx context.Context, ev events.CloudWatchEvent) error {
	log := logger.FromContext(ctx, d.log)
	log.Info().
		Str("event_id", ev.ID).
		Str("source", ev.Source).
		Str("detail_type", ev.DetailType).
		Msg("Received lifecycle event")

	detail, err := event.ParseDetail(ev.Detail)
	if err != nil {
		return fmt.Errorf("invalid lifecycle event: %w", err)
	}
	log = log.With().Fields(detail.Redacted()).Logger()

	if d.cfg.StrictConfig {
		if err := d.cfg.Validate(); err != nil {
			return err
		}
	}

	out, err := d.runner.RunTask(ctx, BuildRunTaskInput(d.cfg, detail))
	if err != nil {
		return fmt.Errorf("failed to run task: %w", err)
	}

	report(log, out)
	return nil
}

// BuildRunTaskInput maps configuration and event onto a RunTask request.
// Missing configuration is passed through as nil or empty values.
func BuildRunTaskInput(cfg *config.Config, detail *event.LifecycleDetail) *ecs.RunTaskInput {
	return &ecs.RunTaskInput{
		Cluster:              cfg.Cluster,
		TaskDefinition:       aws.String(TaskDefinition),
		LaunchType:           ecstypes.LaunchTypeFargate,
		NetworkConfiguration: NetworkConfiguration(cfg),
		Overrides:            ContainerOverrides(cfg, detail),
	}
}

// NetworkConfiguration places the task in the three configured subnets
// without a public IP.
func NetworkConfiguration(cfg *config.Config) *ecstypes.NetworkConfiguration {
	return &ecstypes.NetworkConfiguration{
		AwsvpcConfiguration: &ecstypes.AwsVpcConfiguration{
			Subnets: []string{
				aws.ToString(cfg.SubnetA),
				aws.ToString(cfg.SubnetB),
				aws.ToString(cfg.SubnetC),
			},
			SecurityGroups: []string{aws.ToString(cfg.SecurityGroup)},
			AssignPublicIp: ecstypes.AssignPublicIpDisabled,
		},
	}
}

// ContainerOverrides hands the playbook and lifecycle action to the runner
// container.
func ContainerOverrides(cfg *config.Config, detail *event.LifecycleDetail) *ecstypes.TaskOverride {
	return &ecstypes.TaskOverride{
		ContainerOverrides: []ecstypes.ContainerOverride{
			{
				Name: aws.String(ContainerName),
				Environment: []ecstypes.KeyValuePair{
					{Name: aws.String(EnvPlaybook), Value: cfg.Playbook},
					{Name: aws.String(EnvASGName), Value: aws.String(detail.AutoScalingGroupName)},
					{Name: aws.String(EnvHookName), Value: aws.String(detail.LifecycleHookName)},
					{Name: aws.String(EnvActionToken), Value: aws.String(detail.LifecycleActionToken)},
				},
			},
		},
	}
}

func report(log zerolog.Logger, out *ecs.RunTaskOutput) {
	if out == nil {
		out = &ecs.RunTaskOutput{}
	}

	if len(out.Tasks) == 0 {
		log.Info().Msg("No tasks started")
	}
	for _, task := range out.Tasks {
		for _, c := range task.Containers {
			log.Info().
				Str("task_arn", aws.ToString(task.TaskArn)).
				Str("name", aws.ToString(c.Name)).
				Str("image", aws.ToString(c.Image)).
				Str("status", aws.ToString(c.LastStatus)).
				Msg("Container started")
		}
	}

	// ECS reports placement problems here with a 200 response
	for _, f := range out.Failures {
		log.Warn().
			Str("arn", aws.ToString(f.Arn)).
			Str("reason", aws.ToString(f.Reason)).
			Str("detail", aws.ToString(f.Detail)).
			Msg("Task failure")
	}
}
