// cryptoqr es el cliente de línea de comandos del servicio: envía
// archivos, verifica certificados y consulta stats contra una instancia
// corriendo.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL  string
	adminToken string
)

func main() {
	root := &cobra.Command{
		Use:           "cryptoqr",
		Short:         "Cliente del servicio de certificados de envío",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("CRYPTOQR_SERVER", "http://localhost:8080"), "URL base del servicio")

	root.AddCommand(submitCmd(), verifyCmd(), publicKeyCmd(), statsCmd(), dashboardCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func submitCmd() *cobra.Command {
	var namespace, deadline, contact, certOut string
	cmd := &cobra.Command{
		Use:   "submit <archivo>",
		Short: "Envía un archivo y guarda el certificado emitido",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]string{
				"namespace_id": namespace,
				"deadline":     deadline,
			}
			if contact != "" {
				fields["contact"] = contact
			}
			body, status, err := postMultipart("/api/submit", args[0], "file", fields, nil)
			if err != nil {
				return err
			}
			if status == http.StatusConflict {
				fmt.Println("duplicado: este contenido ya fue registrado")
				fmt.Println(string(body))
				return nil
			}
			if status != http.StatusCreated {
				return fmt.Errorf("HTTP %d: %s", status, body)
			}

			var resp struct {
				SubmissionID string          `json:"submission_id"`
				ContentHash  string          `json:"content_hash"`
				Timestamp    string          `json:"timestamp"`
				Certificate  json.RawMessage `json:"certificate"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("respuesta inesperada: %w", err)
			}

			out := certOut
			if out == "" {
				out = resp.SubmissionID + ".cert.json"
			}
			if err := os.WriteFile(out, resp.Certificate, 0o644); err != nil {
				return err
			}
			fmt.Printf("submission %s registrada (%s)\ncertificado: %s\n", resp.SubmissionID, resp.Timestamp, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace de la convocatoria (requerido)")
	cmd.Flags().StringVarP(&deadline, "deadline", "d", "", "deadline RFC3339 (requerido)")
	cmd.Flags().StringVarP(&contact, "contact", "c", "", "email para recibir el comprobante")
	cmd.Flags().StringVarP(&certOut, "out", "o", "", "destino del certificado (default <submission_id>.cert.json)")
	_ = cmd.MarkFlagRequired("namespace")
	_ = cmd.MarkFlagRequired("deadline")
	return cmd
}

func verifyCmd() *cobra.Command {
	var certPath string
	cmd := &cobra.Command{
		Use:   "verify <archivo>",
		Short: "Verifica un archivo contra su certificado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawCert, err := os.ReadFile(certPath)
			if err != nil {
				return err
			}
			body, status, err := postMultipart("/api/verify", args[0], "file",
				map[string]string{"certificate": string(rawCert)}, nil)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("HTTP %d: %s", status, body)
			}

			var verdict struct {
				Valid  bool            `json:"valid"`
				Checks map[string]bool `json:"checks"`
				Reason string          `json:"reason"`
			}
			if err := json.Unmarshal(body, &verdict); err != nil {
				return fmt.Errorf("respuesta inesperada: %w", err)
			}
			for name, ok := range verdict.Checks {
				mark := "FAIL"
				if ok {
					mark = "ok"
				}
				fmt.Printf("  %-17s %s\n", name, mark)
			}
			if verdict.Valid {
				fmt.Println("VALIDO")
				return nil
			}
			fmt.Println("INVALIDO:", verdict.Reason)
			os.Exit(1)
			return nil
		},
	}
	cmd.Flags().StringVar(&certPath, "cert", "", "ruta al certificado JSON (requerido)")
	_ = cmd.MarkFlagRequired("cert")
	return cmd
}

func publicKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "public-key",
		Short: "Descarga la clave pública de verificación",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, status, err := get("/api/public-key", "")
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("HTTP %d: %s", status, body)
			}
			var resp struct {
				PublicKeyPEM string `json:"public_key_pem"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return err
			}
			fmt.Print(resp.PublicKeyPEM)
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <namespace>",
		Short: "Muestra el resumen de un namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, status, err := get("/api/stats/"+args[0], "")
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("HTTP %d: %s", status, body)
			}
			return printJSON(body)
		},
	}
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Overview global (requiere token admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, status, err := get("/api/dashboard", adminToken)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("HTTP %d: %s", status, body)
			}
			return printJSON(body)
		},
	}
	cmd.Flags().StringVar(&adminToken, "token", envOr("CRYPTOQR_ADMIN_TOKEN", ""), "token admin (o CRYPTOQR_ADMIN_TOKEN)")
	return cmd
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

func postMultipart(path, filePath, fileField string, fields map[string]string, headers map[string]string) ([]byte, int, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, 0, err
		}
	}
	part, err := mw.CreateFormFile(fileField, filepath.Base(filePath))
	if err != nil {
		return nil, 0, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, 0, err
	}
	if err := mw.Close(); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequest(http.MethodPost, serverURL+path, &buf)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return body, resp.StatusCode, err
}

func get(path, bearer string) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodGet, serverURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return body, resp.StatusCode, err
}

func printJSON(raw []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	fmt.Println(out.String())
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
