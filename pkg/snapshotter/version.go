package snapshotter

const (
	// APIDomain is the API domain for status snapshots
	APIDomain = "dpdk.nvidia.com"

	// APIVersion is the current snapshot schema version
	APIVersion = "v1alpha1"

	// FullAPIVersion is the complete API version string
	FullAPIVersion = APIDomain + "/" + APIVersion

	// Kind is the resource kind for snapshots
	Kind = "HostStatus"
)
