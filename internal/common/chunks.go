package common

// SliceToChunks splits values into consecutive chunks of at most chunkSize
// elements. Chunks share the backing array of values.
func SliceToChunks[T any](values []T, chunkSize int) [][]T {
	if chunkSize >= len(values) || chunkSize <= 0 {
		if len(values) == 0 {
			return nil
		}
		return [][]T{values}
	}
	var chunks [][]T
	for i := 0; i < len(values); i += chunkSize {
		end := i + chunkSize
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[i:end])
	}
	return chunks
}

// PageRequest is the argument object of the paginated view methods.
type PageRequest struct {
	FromIndex int `json:"from_index"`
	Limit     int `json:"limit"`
}

// PageRequests returns the requests covering [0, total) in ascending order.
// The last request's limit is clamped to the remaining count.
func PageRequests(total int, pageSize int) []PageRequest {
	if total <= 0 || pageSize <= 0 {
		return nil
	}
	requests := make([]PageRequest, 0, (total+pageSize-1)/pageSize)
	for from := 0; from < total; from += pageSize {
		requests = append(requests, PageRequest{FromIndex: from, Limit: min(pageSize, total-from)})
	}
	return requests
}
