package domain

// KeyPrefix namespaces every key the service writes to the shared store.
const KeyPrefix = "docqa:"
