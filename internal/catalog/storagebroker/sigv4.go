package storagebroker

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// signV4 produces the AWS Signature Version 4 headers for a
// client-drafted request, given the warehouse's own credentials. No
// library in the dependency set exposes a standalone SigV4 signer
// (minio-go's is unexported internal to its PUT/GET call path), so this
// is implemented directly against the public SigV4 algorithm.
func signV4(accessKey, secretKey, region, service, method, uri string, headers map[string][]string, bodyHash string, now time.Time) (map[string][]string, error) {
	if bodyHash == "" {
		bodyHash = hex.EncodeToString(sha256.New().Sum(nil))
	}

	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")

	out := cloneHeaders(headers)
	out["x-amz-date"] = []string{amzDate}
	out["x-amz-content-sha256"] = []string{bodyHash}

	names := make([]string, 0, len(out))
	for k := range out {
		names = append(names, strings.ToLower(k))
	}
	sort.Strings(names)

	byLower := make(map[string][]string, len(out))
	for k, v := range out {
		byLower[strings.ToLower(k)] = v
	}

	var canonicalHeaders strings.Builder
	for _, name := range names {
		values := make([]string, len(byLower[name]))
		for i, v := range byLower[name] {
			values[i] = strings.TrimSpace(v)
		}
		canonicalHeaders.WriteString(name)
		canonicalHeaders.WriteString(":")
		canonicalHeaders.WriteString(strings.Join(values, ","))
		canonicalHeaders.WriteString("\n")
	}
	signedHeaders := strings.Join(names, ";")

	canonicalRequest := strings.Join([]string{
		method,
		uri,
		"", // query string: the broker signs path+headers only, never a query
		canonicalHeaders.String(),
		signedHeaders,
		bodyHash,
	}, "\n")

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, region, service)
	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		credentialScope,
		sha256Hex(canonicalRequest),
	}, "\n")

	signingKey := deriveSigningKey(secretKey, dateStamp, region, service)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	authHeader := fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		accessKey, credentialScope, signedHeaders, signature,
	)
	out["Authorization"] = []string{authHeader}
	return out, nil
}

func deriveSigningKey(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, "aws4_request")
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func sha256Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
