package config

// NewEmbeddingForTest creates an Embedding config for testing purposes
func NewEmbeddingForTest(projectID, location string) *Embedding {
	return &Embedding{
		projectID: projectID,
		location:  location,
	}
}

// NewPolicyForTest creates a Policy config for testing purposes
func NewPolicyForTest(path string) *Policy {
	return &Policy{path: path}
}
