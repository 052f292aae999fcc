// Command marketctl generates caller keypairs and signs marketplace requests.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mr-tron/base58"

	"github.com/ericfisherdev/agentmarket/internal/adapter/driven/signature"
	"github.com/ericfisherdev/agentmarket/internal/domain/model"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "keygen":
		return cmdKeygen(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], in, out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "marketctl: marketplace caller keys and request signing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  marketctl keygen")
	fmt.Fprintln(w, "  marketctl sign --key <base58 seed> --method <METHOD> --path <path> [--body <file>|-]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - keygen prints the identity (public key) and the 32-byte seed, both base58")
	fmt.Fprintln(w, "  - sign prints the three X-Marketplace-* headers, one per line")
	fmt.Fprintln(w, "  - --path must be exactly the request path, without scheme, host or query")
}

func cmdKeygen(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		fmt.Fprintf(errOut, "generate key: %v\n", err)
		return 1
	}
	id, err := model.IdentityFromPublicKey(pub)
	if err != nil {
		fmt.Fprintf(errOut, "identity: %v\n", err)
		return 1
	}

	fmt.Fprintf(out, "identity: %s\n", id)
	fmt.Fprintf(out, "seed: %s\n", base58.Encode(priv.Seed()))
	return 0
}

func cmdSign(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var seedText, method, path, bodyPath string
	fs.StringVar(&seedText, "key", "", "Signer's ed25519 seed, base58")
	fs.StringVar(&method, "method", "POST", "HTTP method")
	fs.StringVar(&path, "path", "", "Request path, e.g. /api/v1/services")
	fs.StringVar(&bodyPath, "body", "", "File holding the request body; - reads stdin")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if seedText == "" {
		fmt.Fprintln(errOut, "missing --key")
		return 2
	}
	if path == "" || !strings.HasPrefix(path, "/") {
		fmt.Fprintln(errOut, "--path must start with /")
		return 2
	}

	seed, err := base58.Decode(seedText)
	if err != nil || len(seed) != ed25519.SeedSize {
		fmt.Fprintf(errOut, "invalid --key: want %d-byte base58 seed\n", ed25519.SeedSize)
		return 2
	}

	var body []byte
	switch bodyPath {
	case "":
	case "-":
		body, err = io.ReadAll(in)
	default:
		body, err = os.ReadFile(bodyPath)
	}
	if err != nil {
		fmt.Fprintf(errOut, "read body: %v\n", err)
		return 1
	}

	h, err := signature.Sign(ed25519.NewKeyFromSeed(seed), strings.ToUpper(method), path, body, time.Now())
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "%s: %s\n", signature.HeaderCaller, h.Caller)
	fmt.Fprintf(out, "%s: %s\n", signature.HeaderTimestamp, h.Timestamp)
	fmt.Fprintf(out, "%s: %s\n", signature.HeaderSignature, h.Signature)
	return 0
}
