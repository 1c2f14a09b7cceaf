package auth

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ShowCookieExportGuide writes step-by-step instructions for exporting cookies
func ShowCookieExportGuide(w io.Writer) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "COOKIE EXPORT GUIDE")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The relay needs the session cookies of a logged-in X account.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 1: Log in at https://x.com in your browser")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 2: Export the cookies for x.com as JSON")
	fmt.Fprintln(w, "   - Use a cookie export extension (Cookie-Editor, EditThisCookie, ...)")
	fmt.Fprintln(w, "   - The export must be a JSON array of objects with name (or key),")
	fmt.Fprintln(w, "     value, domain, path, secure and httpOnly fields")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 3: Import the file")
	fmt.Fprintln(w, "   $ tweetrelay auth import cookies.json --name main")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "   The export must contain at least these cookies:")
	fmt.Fprintln(w, "   auth_token   session token, 40 hex characters")
	fmt.Fprintln(w, "   ct0          CSRF token")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SECURITY WARNING:")
	fmt.Fprintln(w, "   These cookies give full access to the account. Never share them.")
	fmt.Fprintln(w, rule)
}

// ShowQuickExportGuide writes a condensed version for experienced users
func ShowQuickExportGuide(w io.Writer) {
	fmt.Fprintln(w, "Export x.com cookies as JSON from a browser extension, then run: tweetrelay auth import <file>")
}

// ReadCookieExport reads a pasted cookie export from in. On a terminal the
// export is read as a single hidden line; otherwise in is read to EOF.
func ReadCookieExport(in io.Reader, out io.Writer) ([]byte, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Paste the cookie JSON (input hidden), then press Enter: ")
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return nil, fmt.Errorf("failed to read cookies: %w", err)
		}
		return bytes.TrimSpace(data), nil
	}

	var buf bytes.Buffer
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 10<<20)
	for scanner.Scan() {
		buf.Write(scanner.Bytes())
		buf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}
