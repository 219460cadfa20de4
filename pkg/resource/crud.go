package resource

// Names is the set of English word forms a ResourcesManager's log lines and
// CLI help text use for its resource type ("create a %s" vs "creating %s",
// display metadata).
type Names struct {
	Upper   string // e.g. "NODE"
	Lower   string // e.g. "node"
	Ed      string // e.g. "created"
	Ing     string // e.g. "creating"
	Capital string // e.g. "Node"
}

// ResourceType is the descriptor a plugin registers for one
// (plugin, resourceType) pair: the CRUD metadata a ResourcesManager
// construction requires, plus the optional resource-list filter its
// getResources$ applies.
type ResourceType struct {
	Plugin       string
	ResourceType string
	Names        Names

	Master MasterResourceAdapter

	// StartOnCreate runs the started adapter's Start automatically right
	// after a successful create, folding both into one TaskList.
	StartOnCreate bool

	SupportsStart bool
	SupportsStop  bool

	// FilterResources narrows a snapshot for getResources$; nil means no
	// filtering.
	FilterResources func(options Options, resources []Resource) []Resource
}
