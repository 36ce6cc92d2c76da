// Package murmur analyzes the sentiment of short social posts.
//
// Quick start:
//
//	m, err := murmur.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, _ := m.Analyze("coffee", posts)
//	fmt.Println(res.Summary["positive"], res.Summary["negative"])
//
// New trains on an embedded seed corpus unless WithExamples supplies a
// labeled training set. A Murmur is safe for concurrent use.
package murmur
