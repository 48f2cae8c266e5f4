// Package server serves the built-in HTML pages: index, registration, login,
// and the chat client.
package server

import (
	"html/template"
	"log"
	"net/http"
)

// IndexPageHandler serves the landing page.
func IndexPageHandler(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, indexTemplate, nil)
}

// RegisterPageHandler serves the account registration form.
func RegisterPageHandler(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, registerTemplate, nil)
}

// LoginPageHandler serves the login form.
func LoginPageHandler(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, loginTemplate, nil)
}

// ChatPageHandler serves the chat client page.
func ChatPageHandler(w http.ResponseWriter, _ *http.Request) {
	renderPage(w, chatTemplate, nil)
}

func renderPage(w http.ResponseWriter, tmpl *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html")
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("Error rendering %s: %v", tmpl.Name(), err)
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Chat</title></head>
<body>
    <h1>Chat</h1>
    <p><a href="/register">Register</a> | <a href="/login">Login</a> | <a href="/chat">Chat</a></p>
</body>
</html>
`))

var registerTemplate = template.Must(template.New("register").Parse(`<!DOCTYPE html>
<html>
<head><title>Register</title></head>
<body>
    <h1>Register</h1>
    <div id="result"></div>
    <form id="form">
        <input type="text" id="username" placeholder="Username (min 4 characters)" />
        <input type="password" id="password" placeholder="Password (min 8 characters)" />
        <input type="submit" value="Register" />
    </form>
    <p><a href="/login">Already registered? Login</a></p>
    <script>
        document.getElementById('form').addEventListener('submit', async function(e) {
            e.preventDefault();
            const resp = await fetch('/register', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({
                    username: document.getElementById('username').value,
                    password: document.getElementById('password').value
                })
            });
            const data = await resp.json();
            document.getElementById('result').textContent = data.message;
            if (data.success) {
                window.location.href = '/login';
            }
        });
    </script>
</body>
</html>
`))

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Login</title></head>
<body>
    <h1>Login</h1>
    <div id="result"></div>
    <form id="form">
        <input type="text" id="username" placeholder="Username" />
        <input type="password" id="password" placeholder="Password" />
        <input type="submit" value="Login" />
    </form>
    <p><a href="/register">Need an account? Register</a></p>
    <script>
        document.getElementById('form').addEventListener('submit', async function(e) {
            e.preventDefault();
            const resp = await fetch('/login', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({
                    username: document.getElementById('username').value,
                    password: document.getElementById('password').value
                })
            });
            const data = await resp.json();
            document.getElementById('result').textContent = data.message;
            if (data.success && data.token) {
                sessionStorage.setItem('token', data.token);
                window.location.href = '/chat';
            }
        });
    </script>
</body>
</html>
`))

var chatTemplate = template.Must(template.New("chat").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Chat</title>
<style>
    #log {
        border: 1px solid #ccc;
        height: 300px;
        padding: 10px;
        overflow-y: scroll;
        margin: 10px 0;
    }
</style>
</head>
<body>
    <h1>Chat</h1>
    <div id="log"></div>
    <form id="form">
        <input type="text" id="msg" size="64" maxlength="100" />
        <input type="submit" value="Send" />
    </form>
    <script>
        const log = document.getElementById('log');

        function appendLog(text) {
            const line = document.createElement('div');
            line.textContent = text;
            log.appendChild(line);
            log.scrollTop = log.scrollHeight;
        }

        const token = sessionStorage.getItem('token');
        if (!token) {
            appendLog('Not logged in, redirecting...');
            window.location.href = '/login';
        }

        const conn = new WebSocket('ws://' + window.location.host + '/join');
        conn.onopen = function() {
            conn.send('Bearer ' + token);
        };
        conn.onmessage = function(evt) {
            appendLog(evt.data);
        };
        conn.onclose = function() {
            appendLog('Connection closed.');
        };

        document.getElementById('form').addEventListener('submit', function(e) {
            e.preventDefault();
            const msg = document.getElementById('msg');
            if (msg.value && conn.readyState === WebSocket.OPEN) {
                conn.send(msg.value);
                msg.value = '';
            }
        });
    </script>
</body>
</html>
`))
