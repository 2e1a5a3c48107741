// See cache.go for the single-flight/LRU implementation and types.go for
// key derivation and cacheability rules. Typical use from the proxy:
//
//	key := cache.Key(req.Method, scheme, host, req.URL.RequestURI())
//	switch res := c.Get(key); {
//	case res.Hit():
//	    serve(res.Entry)
//	case res.Miss():
//	    defer func() {
//	        if !filled {
//	            c.Cancel(res.Lease)
//	        }
//	    }()
//	    entry := fetchFromOrigin()
//	    c.Put(res.Lease, entry)
//	    filled = true
//	default: // Wait
//	    outcome := <-res.Wait
//	    if outcome.Entry != nil {
//	        serve(outcome.Entry)
//	    } else {
//	        // promoted: outcome.Lease behaves like a Miss lease.
//	    }
//	}
package cache
