package snapcopy

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
)

// Tag is a key/value pair attached to the copied snapshot.
type Tag struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// CopyRequest describes one CopyDBClusterSnapshot call.
type CopyRequest struct {
	Source string
	Target string
	KMSKey string
	Tags   []Tag
}

// Lister returns the complete cluster snapshot listing, all pages included.
type Lister interface {
	ListClusterSnapshots(ctx context.Context) ([]Snapshot, error)
}

// CopyAPI issues a cluster snapshot copy. The copy itself runs asynchronously
// on the service side.
type CopyAPI interface {
	CopyClusterSnapshot(ctx context.Context, req CopyRequest) error
}

// API is the part of the snapshot service the copier uses.
type API interface {
	Lister
	CopyAPI
}

// rdsAPI is the subset of *rds.Client used by RDS.
type rdsAPI interface {
	rds.DescribeDBClusterSnapshotsAPIClient
	CopyDBClusterSnapshot(context.Context, *rds.CopyDBClusterSnapshotInput, ...func(*rds.Options)) (*rds.CopyDBClusterSnapshotOutput, error)
}

// RDS implements API on top of the aws-sdk-go-v2 RDS client.
type RDS struct {
	client rdsAPI
}

// NewRDS wraps an existing client.
func NewRDS(client rdsAPI) *RDS {
	return &RDS{client: client}
}

// NewRDSClient loads the default AWS configuration for region and returns an
// RDS adapter. Credentials come from the ambient default chain.
func NewRDSClient(ctx context.Context, region string) (*RDS, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewRDS(rds.NewFromConfig(cfg)), nil
}

// ListClusterSnapshots drains every page of DescribeDBClusterSnapshots.
func (r *RDS) ListClusterSnapshots(ctx context.Context) ([]Snapshot, error) {
	var out []Snapshot
	p := rds.NewDescribeDBClusterSnapshotsPaginator(r.client, &rds.DescribeDBClusterSnapshotsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range page.DBClusterSnapshots {
			out = append(out, fromRDS(s))
		}
	}
	return out, nil
}

// CopyClusterSnapshot issues CopyDBClusterSnapshot for req.
func (r *RDS) CopyClusterSnapshot(ctx context.Context, req CopyRequest) error {
	tags := make([]types.Tag, 0, len(req.Tags))
	for _, t := range req.Tags {
		tags = append(tags, types.Tag{Key: aws.String(t.Key), Value: aws.String(t.Value)})
	}
	_, err := r.client.CopyDBClusterSnapshot(ctx, &rds.CopyDBClusterSnapshotInput{
		SourceDBClusterSnapshotIdentifier: aws.String(req.Source),
		TargetDBClusterSnapshotIdentifier: aws.String(req.Target),
		KmsKeyId:                          aws.String(req.KMSKey),
		Tags:                              tags,
	})
	return err
}

func fromRDS(s types.DBClusterSnapshot) Snapshot {
	return Snapshot{
		ClusterID:  aws.ToString(s.DBClusterIdentifier),
		SnapshotID: aws.ToString(s.DBClusterSnapshotIdentifier),
		Type:       SnapshotType(aws.ToString(s.SnapshotType)),
		CreatedAt:  aws.ToTime(s.SnapshotCreateTime),
	}
}
