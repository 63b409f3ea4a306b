package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
)

func TestName(t *testing.T) {
	t.Setenv("NODE_NAME", "")
	t.Setenv("KUBERNETES_NODE_NAME", "")
	t.Setenv("HOSTNAME", "host-a")

	name, err := Name()
	require.NoError(t, err)
	assert.Equal(t, "host-a", name)

	t.Setenv("KUBERNETES_NODE_NAME", "node-b")
	name, err = Name()
	require.NoError(t, err)
	assert.Equal(t, "node-b", name)

	t.Setenv("NODE_NAME", "node-c")
	name, err = Name()
	require.NoError(t, err)
	assert.Equal(t, "node-c", name)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, map[string]string{
		LabelProvisioned:    "true",
		LabelDriver:         "vfio-pci",
		LabelRebootRequired: "false",
	}, Labels("vfio-pci", false))
}

func TestLabeler_Label(t *testing.T) {
	clientset := fake.NewClientset(&corev1.Node{
		ObjectMeta: metav1.ObjectMeta{
			Name:   "worker-1",
			Labels: map[string]string{"kubernetes.io/hostname": "worker-1"},
		},
	})

	l := &Labeler{Client: clientset}
	require.NoError(t, l.Label(context.Background(), "worker-1", Labels("vfio-pci", true)))

	n, err := clientset.CoreV1().Nodes().Get(context.Background(), "worker-1", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "worker-1", n.Labels["kubernetes.io/hostname"])
	assert.Equal(t, "true", n.Labels[LabelProvisioned])
	assert.Equal(t, "vfio-pci", n.Labels[LabelDriver])
	assert.Equal(t, "true", n.Labels[LabelRebootRequired])
}

func TestLabeler_LabelMissingNode(t *testing.T) {
	l := &Labeler{Client: fake.NewClientset()}

	err := l.Label(context.Background(), "absent", Labels("vfio-pci", false))
	require.Error(t, err)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeUnavailable))
}
