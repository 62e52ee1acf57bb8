package redis

// Redis key naming conventions. All keys are prefixed with "warbler:" to
// avoid collisions in shared instances.

const keyPrefix = "warbler:"

// jobKey returns the key for a job record: warbler:job:{id}
func jobKey(id string) string { return keyPrefix + "job:" + id }

// queueKey is the List holding the ordered queue index of non-terminal
// job IDs.
const queueKey = keyPrefix + "queue"

// jobIDsKey is the Set tracking all job IDs for enumeration (the
// retention sweeper scans it).
const jobIDsKey = keyPrefix + "job_ids"

// transcriptKey returns the key for a transcript record:
// warbler:transcript:{id}
func transcriptKey(id string) string { return keyPrefix + "transcript:" + id }

// lockKey returns the key for a named distributed lock:
// warbler:lock:{name}
func lockKey(name string) string { return keyPrefix + "lock:" + name }
