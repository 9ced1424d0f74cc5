package pacman

const (
	// DefaultDBPath is where pacman keeps its local and sync databases
	DefaultDBPath = "/var/lib/pacman"

	// DefaultConfigFile is the pacman configuration read for repositories and IgnorePkg
	DefaultConfigFile = "/etc/pacman.conf"

	// LocalDir holds one <name>-<version>/desc directory per installed package
	LocalDir = "local"

	// SyncDir holds one <repo>.db archive per configured repository
	SyncDir = "sync"

	// RepoLocal marks packages that belong to no sync database
	RepoLocal = "local"
)

// InstallSuffixes are appended to a query when looking for installable
// candidates, in priority order
var InstallSuffixes = []string{"", "-git", "-bin"}
