package api

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bookqr/book-qr/compose"
	"github.com/bookqr/book-qr/qr"
	"github.com/bookqr/book-qr/session"
)

type qrDataResponse struct {
	Workflow   session.Workflow `json:"workflow"`
	Ready      bool             `json:"ready"`
	QRPNG      string           `json:"qr_png,omitempty"`
	Version    int              `json:"version,omitempty"`
	Characters int              `json:"characters,omitempty"`
	Profile    string           `json:"error_correction,omitempty"`
}

// artifact resolves the {workflow} URL parameter. The caller must hold s.mu.
func (s *Server) artifact(w http.ResponseWriter, r *http.Request) (session.Workflow, *qr.Artifact, bool) {
	wf, err := session.ParseWorkflow(chi.URLParam(r, "workflow"))
	if err != nil {
		writeAppError(w, err)
		return "", nil, false
	}
	return wf, s.Session.Artifact(wf), true
}

func (s *Server) handleQRImage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, a, ok := s.artifact(w, r)
	if !ok {
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "no QR code generated yet")
		return
	}

	data := a.PNG()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleQRData(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wf, a, ok := s.artifact(w, r)
	if !ok {
		return
	}

	resp := qrDataResponse{Workflow: wf}
	if a != nil {
		resp.Ready = true
		resp.QRPNG = base64.StdEncoding.EncodeToString(a.PNG())
		resp.Version = a.Version
		resp.Characters = compose.Length(a.Content)
		resp.Profile = a.Profile.String()
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleClear resets one workflow. Clearing the PDF workflow also unloads
// the document.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := requireJSON(r); err != nil {
		writeAppError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wf, _, ok := s.artifact(w, r)
	if !ok {
		return
	}
	if wf == session.WorkflowPDF {
		s.Session.ClearPDF()
	} else {
		s.Session.ClearText()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type saveRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wf, _, ok := s.artifact(w, r)
	if !ok {
		return
	}

	saved, err := s.Session.Save(wf, req.Path)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if saved == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "canceled"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "path": saved})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(previewPageHTML))
}

const previewPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Book QR Generator</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
    background: #f4f4f4;
    color: #222;
    display: flex;
    justify-content: center;
    gap: 24px;
    padding: 32px;
    flex-wrap: wrap;
  }
  .card {
    background: #fff;
    border: 1px solid #ddd;
    border-radius: 12px;
    padding: 24px;
    width: 420px;
  }
  h1 { font-size: 18px; font-weight: 600; margin-bottom: 16px; }
  label { display: block; font-size: 13px; color: #555; margin: 12px 0 4px; }
  input[type=text] { width: 100%; padding: 8px; border: 1px solid #ccc; border-radius: 6px; }
  .hint { font-size: 11px; color: #888; margin-top: 4px; }
  .buttons { display: flex; gap: 8px; margin-top: 16px; }
  button { flex: 1; padding: 8px; border: 1px solid #bbb; border-radius: 6px; background: #fafafa; cursor: pointer; }
  button:hover { background: #eee; }
  .preview {
    width: 372px; height: 372px;
    margin-top: 16px;
    display: flex;
    align-items: center;
    justify-content: center;
    border: 1px solid #ddd;
    border-radius: 8px;
    color: #999;
  }
  .preview img { max-width: 360px; max-height: 360px; }
  .info { font-size: 13px; margin-top: 8px; min-height: 18px; }
  .error { color: #c0392b; }
</style>
</head>
<body>
<div class="card" data-workflow="pdf">
  <h1>PDF to QR Code</h1>
  <label for="pdf-path">PDF file path</label>
  <input type="text" id="pdf-path" placeholder="/path/to/book.pdf">
  <div class="buttons"><button id="pdf-open">Load PDF</button></div>
  <div class="info" id="pdf-doc">No file selected</div>
  <label for="pdf-pages">Page number or range</label>
  <input type="text" id="pdf-pages" value="1">
  <div class="hint">Enter a single page (e.g., '5') or a range (e.g., '10-15')</div>
  <label for="pdf-link">Google Drive link (optional)</label>
  <input type="text" id="pdf-link" placeholder="https://drive.google.com/...">
  <div class="buttons">
    <button id="pdf-generate">Generate QR Code</button>
    <button id="pdf-save">Save QR Code</button>
    <button id="pdf-clear">Clear</button>
  </div>
  <div class="info" id="pdf-info">No text extracted yet</div>
  <div class="preview" id="pdf-preview">QR code will appear here</div>
</div>
<div class="card" data-workflow="text">
  <h1>URL or Text to QR Code</h1>
  <label for="text-input">URL or text</label>
  <input type="text" id="text-input" placeholder="Enter a URL or text to encode">
  <div class="buttons">
    <button id="text-generate">Generate QR Code</button>
    <button id="text-save">Save QR Code</button>
    <button id="text-clear">Clear</button>
  </div>
  <div class="info" id="text-info"></div>
  <div class="preview" id="text-preview">QR code will appear here</div>
</div>
<script>
(function() {
  function $(id) { return document.getElementById(id); }

  function clearChildren(el) {
    while (el.firstChild) el.removeChild(el.firstChild);
  }

  function setInfo(id, text, isError) {
    var el = $(id);
    el.textContent = text;
    el.className = isError ? 'info error' : 'info';
  }

  function call(method, url, body) {
    return fetch(url, {
      method: method,
      headers: { 'Content-Type': 'application/json' },
      body: body ? JSON.stringify(body) : undefined
    }).then(function(r) {
      return r.json().then(function(data) { return { status: r.status, data: data }; });
    });
  }

  function showPreview(workflow) {
    call('GET', '/qr/' + workflow + '/data').then(function(res) {
      var box = $(workflow + '-preview');
      clearChildren(box);
      if (!res.data.ready) {
        box.textContent = 'QR code will appear here';
        return;
      }
      var img = document.createElement('img');
      img.setAttribute('alt', 'QR Code');
      img.setAttribute('src', 'data:image/png;base64,' + res.data.qr_png);
      box.appendChild(img);
    });
  }

  // generate posts body and, when the server asks for confirmation, asks the
  // user about that prompt and retries with its title acknowledged.
  function generate(workflow, body) {
    call('POST', '/generate/' + workflow, body).then(function(res) {
      if (res.status === 409 && res.data.prompt && body.confirmed.indexOf(res.data.prompt.title) < 0) {
        if (window.confirm(res.data.prompt.title + '\n\n' + res.data.prompt.message)) {
          body.confirmed.push(res.data.prompt.title);
          generate(workflow, body);
        }
        return;
      }
      if (res.status !== 200) {
        setInfo(workflow + '-info', res.data.error, true);
        return;
      }
      var d = res.data;
      var what = d.pages ? 'Text extracted from ' + d.pages : 'Content';
      setInfo(workflow + '-info', what + ': ' + d.characters + ' characters (version ' + d.version + ', ' + d.error_correction + ' error correction)', false);
      showPreview(workflow);
    });
  }

  function save(workflow) {
    var path = window.prompt('Save QR code to', 'qr-code.png');
    if (!path) return;
    call('POST', '/qr/' + workflow + '/save', { path: path }).then(function(res) {
      if (res.status !== 200) {
        setInfo(workflow + '-info', res.data.error, true);
        return;
      }
      setInfo(workflow + '-info', 'QR code saved to ' + res.data.path, false);
    });
  }

  $('pdf-open').addEventListener('click', function() {
    call('POST', '/document', { path: $('pdf-path').value }).then(function(res) {
      if (res.status !== 200) {
        setInfo('pdf-doc', res.data.error, true);
        return;
      }
      setInfo('pdf-doc', res.data.name + ' (total pages: ' + res.data.total_pages + ')', false);
    });
  });
  $('pdf-generate').addEventListener('click', function() {
    generate('pdf', { pages: $('pdf-pages').value, link: $('pdf-link').value, confirmed: [] });
  });
  $('text-generate').addEventListener('click', function() {
    generate('text', { text: $('text-input').value, confirmed: [] });
  });
  $('pdf-save').addEventListener('click', function() { save('pdf'); });
  $('text-save').addEventListener('click', function() { save('text'); });
  $('pdf-clear').addEventListener('click', function() {
    call('DELETE', '/qr/pdf').then(function() {
      $('pdf-path').value = '';
      $('pdf-pages').value = '1';
      $('pdf-link').value = '';
      setInfo('pdf-doc', 'No file selected', false);
      setInfo('pdf-info', 'No text extracted yet', false);
      showPreview('pdf');
    });
  });
  $('text-clear').addEventListener('click', function() {
    call('DELETE', '/qr/text').then(function() {
      $('text-input').value = '';
      setInfo('text-info', '', false);
      showPreview('text');
    });
  });

  showPreview('pdf');
  showPreview('text');
})();
</script>
</body>
</html>`
