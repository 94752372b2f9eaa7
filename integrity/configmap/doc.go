// Package configmap stores integrity digests in a Kubernetes ConfigMap so
// that every replica of a site shares one set of hashes. Store implements
// integrity.Store and integrity.Clearer; pair it with an in-process
// integrity.MemoryStore through integrity.Tiered to avoid an API round trip
// per render.
package configmap
