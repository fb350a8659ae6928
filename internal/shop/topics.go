package shop

const TopicActivity = "storefront.activity"

// Partition key = session id, so events of one browser session stay ordered.
func PartitionKey(sessionID string) []byte { return []byte(sessionID) }
