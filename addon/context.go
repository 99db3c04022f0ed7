package addon

import "fmt"

// Keys for values resolved while a procedure runs.
const (
	KeyAccountID       = "account-id"
	KeyVPCID           = "vpc-id"
	KeyClusterEndpoint = "cluster-endpoint"
)

// Context carries the parameters shared by every step of an add-on
// installation run: cluster identity, tool paths, and values resolved
// from the cloud while the run progresses. Fixed fields are read-only
// for the whole run; resolved values are set exactly once and never
// overwritten afterwards.
type Context struct {
	ClusterName    string
	Region         string
	KubeconfigPath string
	OutputDir      string

	EnableTimeSlicing bool

	KubectlPath string
	HelmPath    string
	EksctlPath  string
	AWSCLIPath  string

	values map[string]string
}

// Set stores a resolved value under key. Storing a second value under the
// same key is an error; resolved values are fixed for the rest of the run.
func (c *Context) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("empty context key")
	}
	if _, ok := c.values[key]; ok {
		return fmt.Errorf("context value %q already set", key)
	}
	if c.values == nil {
		c.values = make(map[string]string)
	}
	c.values[key] = value
	return nil
}

// Get returns the resolved value under key, if any.
func (c *Context) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Value returns the resolved value under key, or an error when the value
// has not been resolved yet.
func (c *Context) Value(key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", fmt.Errorf("context value %q not resolved", key)
	}
	return v, nil
}
