// Package node publishes provisioning state as labels on the host's
// Kubernetes node.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
)

const (
	LabelProvisioned    = "dpdk.nvidia.com/provisioned"
	LabelDriver         = "dpdk.nvidia.com/driver"
	LabelRebootRequired = "dpdk.nvidia.com/reboot-required"
)

var nodeNameEnv = []string{"NODE_NAME", "KUBERNETES_NODE_NAME", "HOSTNAME"}

// Name returns the node name from the environment, falling back to the
// host name.
func Name() (string, error) {
	for _, key := range nodeNameEnv {
		if v := os.Getenv(key); v != "" {
			return v, nil
		}
	}
	h, err := os.Hostname()
	if err != nil {
		return "", cerrors.Wrap(cerrors.ErrCodeInternal, "failed to determine node name", err)
	}
	return h, nil
}

// Labels returns the labels describing a completed provisioning run.
func Labels(driver string, rebootRequired bool) map[string]string {
	return map[string]string{
		LabelProvisioned:    "true",
		LabelDriver:         driver,
		LabelRebootRequired: strconv.FormatBool(rebootRequired),
	}
}

// Labeler merges labels into a node.
type Labeler struct {
	Client kubernetes.Interface
}

// Label merge-patches labels into the named node, leaving other labels as is.
func (l *Labeler) Label(ctx context.Context, name string, labels map[string]string) error {
	patch, err := json.Marshal(map[string]any{
		"metadata": map[string]any{"labels": labels},
	})
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInternal, "failed to build label patch", err)
	}

	if _, err := l.Client.CoreV1().Nodes().Patch(ctx, name, types.MergePatchType, patch, metav1.PatchOptions{}); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeUnavailable, fmt.Sprintf("failed to label node %s", name), err)
	}

	slog.Info("node labelled", "node", name, "labels", labels)
	return nil
}
