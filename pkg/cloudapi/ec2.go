package cloudapi

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

func parsePrice(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// RawInstanceType is the subset of ec2.DescribeInstanceTypes output
// the Instance Catalog's filter policy (§4.2) needs.
type RawInstanceType struct {
	Shape              string
	VCPUs              int
	MemMB              int
	StorageGB          int
	Architectures      []string
	SustainedClockGHz  float64
	SupportsSpot       bool
	SupportsEBSRoot    bool
	HasGPU             bool
	HasFPGA            bool
	HasInferenceAccel  bool
	BareMetal          bool
	Burstable          bool
}

// DescribeAllInstanceTypes pages through every instance type the
// account's region offers.
func (c *Clients) DescribeAllInstanceTypes(ctx context.Context) ([]RawInstanceType, error) {
	var out []RawInstanceType
	paginator := ec2.NewDescribeInstanceTypesPaginator(c.EC2, &ec2.DescribeInstanceTypesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, it := range page.InstanceTypes {
			out = append(out, toRawInstanceType(it))
		}
	}
	return out, nil
}

func toRawInstanceType(it types.InstanceTypeInfo) RawInstanceType {
	r := RawInstanceType{Shape: string(it.InstanceType)}
	if it.VCpuInfo != nil && it.VCpuInfo.DefaultVCpus != nil {
		r.VCPUs = int(*it.VCpuInfo.DefaultVCpus)
	}
	if it.MemoryInfo != nil && it.MemoryInfo.SizeInMiB != nil {
		r.MemMB = int(*it.MemoryInfo.SizeInMiB)
	}
	if it.InstanceStorageInfo != nil && it.InstanceStorageInfo.TotalSizeInGB != nil {
		r.StorageGB = int(*it.InstanceStorageInfo.TotalSizeInGB)
	}
	if it.ProcessorInfo != nil {
		for _, a := range it.ProcessorInfo.SupportedArchitectures {
			r.Architectures = append(r.Architectures, string(a))
		}
		if it.ProcessorInfo.SustainedClockSpeedInGhz != nil {
			r.SustainedClockGHz = *it.ProcessorInfo.SustainedClockSpeedInGhz
		}
	}
	for _, usage := range it.SupportedUsageClasses {
		if usage == types.UsageClassTypeSpot {
			r.SupportsSpot = true
		}
	}
	for _, rdt := range it.SupportedRootDeviceTypes {
		if rdt == types.RootDeviceTypeEbs {
			r.SupportsEBSRoot = true
		}
	}
	r.HasGPU = it.GpuInfo != nil
	r.HasFPGA = it.FpgaInfo != nil
	r.HasInferenceAccel = it.InferenceAcceleratorInfo != nil
	if it.BareMetal != nil {
		r.BareMetal = *it.BareMetal
	}
	if it.BurstablePerformanceSupported != nil {
		r.Burstable = *it.BurstablePerformanceSupported
	}
	return r
}

// SpotPriceObservation is one row of DescribeSpotPriceHistory output.
type SpotPriceObservation struct {
	Shape     string
	AZ        string
	Price     float64
	Timestamp time.Time
}

// DescribeLatestSpotPrices queries spot price history bounded to
// "now" on both ends — the ambiguous-behavior resolution of §9: this
// StartTime==EndTime window is intentional "latest-only" semantics
// and must not be broadened.
func (c *Clients) DescribeLatestSpotPrices(ctx context.Context, shapes []string) ([]SpotPriceObservation, error) {
	now := time.Now().UTC()
	its := make([]types.InstanceType, 0, len(shapes))
	for _, s := range shapes {
		its = append(its, types.InstanceType(s))
	}
	var out []SpotPriceObservation
	paginator := ec2.NewDescribeSpotPriceHistoryPaginator(c.EC2, &ec2.DescribeSpotPriceHistoryInput{
		InstanceTypes:       its,
		ProductDescriptions: []string{"Linux/UNIX"},
		StartTime:           aws.Time(now),
		EndTime:             aws.Time(now),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range page.SpotPriceHistory {
			price, err := parsePrice(aws.ToString(p.SpotPrice))
			if err != nil {
				continue
			}
			ts := time.Time{}
			if p.Timestamp != nil {
				ts = *p.Timestamp
			}
			out = append(out, SpotPriceObservation{
				Shape:     string(p.InstanceType),
				AZ:        aws.ToString(p.AvailabilityZone),
				Price:     price,
				Timestamp: ts,
			})
		}
	}
	return out, nil
}

// LaunchSpec describes a one-time spot run-instances request.
type LaunchSpec struct {
	Shape            string
	AZ               string
	AMIID            string
	SecurityGroupID  string
	WorkerProfileArn string
	UserData         string
	ExtraEBSGiB      int
	Tags             map[string]string
}

// RunSpotInstance issues a one-time spot RunInstances call — grounded
// on hyperdrive.py's req_instance() block-device/market-options
// shape (§4.5).
func (c *Clients) RunSpotInstance(ctx context.Context, spec LaunchSpec) (string, error) {
	tagSpecs := buildTagSpecs(spec.Tags)

	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(spec.AMIID),
		InstanceType: types.InstanceType(spec.Shape),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		Placement:    &types.Placement{AvailabilityZone: aws.String(spec.AZ)},
		SecurityGroupIds: []string{spec.SecurityGroupID},
		IamInstanceProfile: &types.IamInstanceProfileSpecification{
			Arn: aws.String(spec.WorkerProfileArn),
		},
		UserData: aws.String(spec.UserData),
		InstanceMarketOptions: &types.InstanceMarketOptionsRequest{
			MarketType: types.MarketTypeSpot,
			SpotOptions: &types.SpotMarketOptions{
				SpotInstanceType: types.SpotInstanceTypeOneTime,
			},
		},
		TagSpecifications: tagSpecs,
	}

	if spec.ExtraEBSGiB > 0 {
		input.BlockDeviceMappings = []types.BlockDeviceMapping{
			{
				DeviceName: aws.String("/dev/xvdz"),
				Ebs: &types.EbsBlockDevice{
					VolumeSize: aws.Int32(int32(spec.ExtraEBSGiB)),
					VolumeType: types.VolumeTypeGp2,
				},
			},
		}
	}

	out, err := c.EC2.RunInstances(ctx, input)
	if err != nil {
		return "", err
	}
	if len(out.Instances) == 0 || out.Instances[0].InstanceId == nil {
		return "", nil
	}
	return *out.Instances[0].InstanceId, nil
}

func buildTagSpecs(tags map[string]string) []types.TagSpecification {
	if len(tags) == 0 {
		return nil
	}
	var ec2Tags []types.Tag
	for k, v := range tags {
		ec2Tags = append(ec2Tags, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return []types.TagSpecification{
		{ResourceType: types.ResourceTypeInstance, Tags: ec2Tags},
		{ResourceType: types.ResourceTypeVolume, Tags: ec2Tags},
	}
}

// InstanceObservation is the subset of DescribeInstances the
// Lifecycle Tracker needs to reconcile state (§4.6).
type InstanceObservation struct {
	InstanceID      string
	Shape           string
	AZ              string
	StateReasonCode string
}

// DescribeInstanceStates batch-describes instances and returns their
// StateReason.Code.
func (c *Clients) DescribeInstanceStates(ctx context.Context, ids []string) ([]InstanceObservation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out, err := c.EC2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: ids})
	if err != nil {
		return nil, err
	}
	var obs []InstanceObservation
	for _, res := range out.Reservations {
		for _, inst := range res.Instances {
			code := ""
			if inst.StateReason != nil {
				code = aws.ToString(inst.StateReason.Code)
			}
			az := ""
			if inst.Placement != nil {
				az = aws.ToString(inst.Placement.AvailabilityZone)
			}
			obs = append(obs, InstanceObservation{
				InstanceID:      aws.ToString(inst.InstanceId),
				Shape:           string(inst.InstanceType),
				AZ:              az,
				StateReasonCode: code,
			})
		}
	}
	return obs, nil
}

// TerminateInstance terminates a single instance — used by `kill`.
func (c *Clients) TerminateInstance(ctx context.Context, instanceID string) error {
	_, err := c.EC2.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{instanceID},
	})
	return err
}
