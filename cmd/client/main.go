package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/dattu/rollsim/pkg/protocol"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	mode := flag.String("mode", "compare", "compare | fingerprint")
	server := flag.String("server", "localhost:50061", "host:port of a rollsim server")
	a := flag.String("a", "", "first object (path under the server's datadir)")
	b := flag.String("b", "", "second object (compare only)")
	timeout := flag.Duration("timeout", 60*time.Second, "RPC timeout")
	flag.Parse()

	if *a == "" || (*mode == "compare" && *b == "") {
		log.Fatal("flag -a is mandatory, and -b too in compare mode")
	}

	conn, err := grpc.NewClient(*server, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("dial %s: %v", *server, err)
	}
	defer conn.Close()
	client := protocol.NewSimilarityClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "compare":
		resp, err := client.Compare(ctx, &protocol.CompareRequest{A: *a, B: *b})
		if err != nil {
			log.Fatalf("Compare: %v", err)
		}
		if !resp.Ok {
			log.Fatalf("Compare failed: %s", resp.Error)
		}
		fmt.Printf("%.4f  %s ~ %s  (sets %d / %d)\n", resp.Score, *a, *b, resp.SetA, resp.SetB)
	case "fingerprint":
		resp, err := client.Fingerprint(ctx, &protocol.FingerprintRequest{Path: *a})
		if err != nil {
			log.Fatalf("Fingerprint: %v", err)
		}
		if !resp.Ok {
			log.Fatalf("Fingerprint failed: %s", resp.Error)
		}
		fmt.Printf("%s: %d bytes, %d windows, %d sampled checksums\n", *a, resp.Bytes, resp.Windows, resp.Selected)
	default:
		log.Fatalf("unknown mode %q; must be compare or fingerprint", *mode)
	}
}
